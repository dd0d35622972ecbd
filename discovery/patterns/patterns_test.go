package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "jose", Fold("José"))
	assert.Equal(t, "muller", Fold("Müller"))
	assert.Equal(t, "acme", Fold("ACME"))
}

func TestCompanyCandidates(t *testing.T) {
	got := CompanyCandidates("Acme Robotics, Inc.", "", nil)

	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 10)
	for i, c := range got {
		assert.True(t, strings.Contains(c.Email, "@acmeroboticsinc."), c.Email)
		assert.Greater(t, c.Confidence, 40)
		assert.Equal(t, SourceCompany, c.Source)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Confidence, c.Confidence)
		}
	}
	// sales outranks the general contact inbox
	assert.Equal(t, "sales@acmeroboticsinc.com", got[0].Email)
}

func TestCompanyCandidatesOnKnownDomain(t *testing.T) {
	got := CompanyCandidates("Acme", "acme.io", []string{"ceo", "sales"})

	require.Len(t, got, 2)
	assert.Equal(t, "ceo@acme.io", got[0].Email)
	assert.Equal(t, "sales@acme.io", got[1].Email)
}

func TestCompanyCandidatesEmpty(t *testing.T) {
	assert.Empty(t, CompanyCandidates("!!!", "", nil))
}

func TestPersonCandidates(t *testing.T) {
	got := PersonCandidates("Jane", "", "Doe", "")

	emails := make(map[string]bool, len(got))
	for _, c := range got {
		emails[c.Email] = true
		assert.Equal(t, SourceName, c.Source)
	}
	for _, want := range []string{
		"janedoe@gmail.com", "jane.doe@gmail.com", "jane_doe@outlook.com",
		"jane-doe@yahoo.com", "jdoe@icloud.com", "janed@hotmail.com",
	} {
		assert.True(t, emails[want], want)
	}
	assert.Len(t, got, 9*23)
}

func TestPersonCandidatesWithMiddleName(t *testing.T) {
	got := PersonCandidates("Ana", "María", "López", "acme.com")

	emails := make([]string, 0, len(got))
	for _, c := range got {
		emails = append(emails, c.Email)
	}
	assert.Contains(t, emails, "ana.maria.lopez@acme.com")
	assert.Contains(t, emails, "amlopez@acme.com")
	assert.Len(t, emails, 12)
}

func TestHandleCandidates(t *testing.T) {
	got := HandleCandidates("@Jane_Doe", "")

	emails := make([]string, 0, len(got))
	for _, c := range got {
		emails = append(emails, c.Email)
	}
	assert.Contains(t, emails, "janedoe@gmail.com")
	assert.Contains(t, emails, "jane_doe@gmail.com")
	assert.Contains(t, emails, "janedoeofficial@yahoo.com")
	assert.Contains(t, emails, "thejanedoe@outlook.com")
	assert.Len(t, emails, 5*5)
}

func TestGenerate(t *testing.T) {
	assert.NotEmpty(t, Generate(Identity{Kind: KindCompany, Company: "Northwind"}, ""))
	assert.NotEmpty(t, Generate(Identity{Kind: KindPerson, First: "Jane", Last: "Doe"}, ""))
	assert.NotEmpty(t, Generate(Identity{Kind: KindHandle, Handle: "janedoe"}, ""))
	assert.Nil(t, Generate(Identity{Kind: "unknown"}, ""))
}

func TestExtractIdentities(t *testing.T) {
	text := `Hi there! My name is Jane Doe and I write about coffee.
		Author: Jane Doe. Follow https://twitter.com/janedoe_writes or
		https://www.linkedin.com/in/jane-doe-42 and https://facebook.com/sharer`

	got := ExtractIdentities(text)

	require.Len(t, got, 3)
	assert.Equal(t, Identity{Kind: KindPerson, First: "Jane", Last: "Doe", Context: "My name is Jane Doe"}, got[0])
	assert.Equal(t, KindHandle, got[1].Kind)
	assert.Equal(t, "janedoe_writes", got[1].Handle)
	assert.Equal(t, "twitter", got[1].Platform)
	assert.Equal(t, "jane-doe-42", got[2].Handle)
	assert.Equal(t, "linkedin", got[2].Platform)
}
