package template

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fakers maps zero-argument generator names to their implementations.
var fakers = map[string]func() string{
	"uuid":           func() string { return uuid.NewString() },
	"email":          fakerEmail,
	"name":           fakerName,
	"firstName":      fakerFirstName,
	"lastName":       fakerLastName,
	"username":       fakerUsername,
	"url":            fakerURL,
	"datePast":       fakerDatePast,
	"dateFuture":     fakerDateFuture,
	"dateRecent":     fakerDateRecent,
	"loremSentence":  fakerLoremSentence,
	"loremParagraph": fakerLoremParagraph,
	"imageUrl":       fakerImageURL,
}

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen", "Daniel",
	"Lisa", "Matthew", "Nancy", "Anthony", "Sandra", "Mark", "Ashley",
	"Donald", "Emily", "Steven", "Kimberly", "Andrew", "Margaret", "Paul",
	"Donna", "Joshua", "Michelle", "Kenneth", "Carol",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark",
	"Ramirez", "Lewis", "Robinson", "Walker", "Young", "Allen", "King",
	"Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
}

var emailDomains = []string{
	"example.com", "example.org", "example.net", "mail.test", "inbox.test",
}

var urlHosts = []string{
	"example.com", "example.org", "demo.test", "sample.test",
}

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua", "enim", "ad", "minim", "veniam",
	"quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi",
	"aliquip", "ex", "ea", "commodo", "consequat",
}

const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func pick(list []string) string {
	return list[rand.Intn(len(list))]
}

func fakerFirstName() string { return pick(firstNames) }

func fakerLastName() string { return pick(lastNames) }

func fakerName() string {
	return pick(firstNames) + " " + pick(lastNames)
}

func fakerEmail() string {
	local := strings.ToLower(pick(firstNames)) + "." + strings.ToLower(pick(lastNames))
	return local + "@" + pick(emailDomains)
}

func fakerUsername() string {
	return strings.ToLower(pick(firstNames)) + strconv.Itoa(rand.Intn(1000))
}

func fakerURL() string {
	return "https://" + pick(urlHosts) + "/" + strings.ToLower(pick(loremWords))
}

func fakerImageURL() string {
	width := (rand.Intn(8) + 1) * 100
	height := (rand.Intn(8) + 1) * 100
	return fmt.Sprintf("https://picsum.photos/%d/%d", width, height)
}

func fakerDatePast() string {
	offset := time.Duration(rand.Int63n(int64(365 * 24 * time.Hour)))
	return time.Now().Add(-offset).UTC().Format(time.RFC3339)
}

func fakerDateFuture() string {
	offset := time.Duration(rand.Int63n(int64(365 * 24 * time.Hour)))
	return time.Now().Add(offset).UTC().Format(time.RFC3339)
}

func fakerDateRecent() string {
	offset := time.Duration(rand.Int63n(int64(24 * time.Hour)))
	return time.Now().Add(-offset).UTC().Format(time.RFC3339)
}

func fakerLoremSentence() string {
	n := rand.Intn(8) + 5
	words := make([]string, n)
	for i := range words {
		words[i] = pick(loremWords)
	}
	sentence := strings.Join(words, " ")
	return strings.ToUpper(sentence[:1]) + sentence[1:] + "."
}

func fakerLoremParagraph() string {
	n := rand.Intn(3) + 3
	sentences := make([]string, n)
	for i := range sentences {
		sentences[i] = fakerLoremSentence()
	}
	return strings.Join(sentences, " ")
}

// fakerAlphanumeric returns a random alphanumeric string of length n.
func fakerAlphanumeric(n int) string {
	if n <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphanumericChars[rand.Intn(len(alphanumericChars))])
	}
	return sb.String()
}

// fakerInteger returns a random integer in [0, max].
func fakerInteger(max int) string {
	if max <= 0 {
		return "0"
	}
	return strconv.Itoa(rand.Intn(max + 1))
}

// fakerFloat returns a random float in [0, max) with the given precision.
func fakerFloat(max float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if max <= 0 {
		return strconv.FormatFloat(0, 'f', precision, 64)
	}
	value := rand.Float64() * max
	factor := math.Pow10(precision)
	value = math.Round(value*factor) / factor
	return strconv.FormatFloat(value, 'f', precision, 64)
}
