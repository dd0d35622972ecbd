package enrich

import (
	"testing"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"john.smith@acme.com", "John"},
		{"info.jane@acme.com", "Jane"},
		{"2024_mike@acme.com", "Mike"},
		{"info@acme.com", "Acme"},
		{"sales@mail.northwind.co.uk", "Northwind"},
		{"jdoe88@gmail.com", "Jdoe"},
		{"x1@acme.com", "Acme"},
		{"", "Contact"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromEmail(tt.email))
		})
	}
}

func TestCompanyFromTitle(t *testing.T) {
	assert.Equal(t, "Acme Robotics", CompanyFromTitle("Acme Robotics - Contact us", ""))
	assert.Equal(t, "Northwind", CompanyFromTitle("Northwind | Home", ""))
	assert.Equal(t, "Blue-Sky Labs", CompanyFromTitle("Blue-Sky Labs: Team", ""))
	assert.Equal(t, "Studio", CompanyFromTitle("", "https://www.studio.io/contact"))
	assert.Equal(t, "", CompanyFromTitle("", ""))
}

func TestEnrich(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e := New(WithClock(func() time.Time { return fixed }), WithIDGenerator(func() string { return "id-1" }))

	got := e.Enrich([]models.Prospect{
		{Email: "CEO@AcmeTech.com", Source: "searxng", Confidence: 80},
		{Email: "jane.doe@gmail.com", Name: "Jane Doe", Company: "Freelance", Role: "Designer", Source: "ollama", ID: "keep"},
	}, "SaaS")

	require.Len(t, got, 2)

	ceo := got[0]
	assert.Equal(t, "ceo@acmetech.com", ceo.Email)
	assert.Equal(t, "id-1", ceo.ID)
	assert.Equal(t, fixed, ceo.DiscoveredAt)
	assert.Equal(t, fixed, ceo.Metadata.FoundAt)
	assert.Equal(t, "Acmetech", ceo.Name)
	assert.Equal(t, "Acmetech", ceo.Company)
	assert.Equal(t, "SaaS", ceo.Industry)
	assert.Equal(t, "CEO/Founder", ceo.Role)
	assert.Equal(t, "C-Level", ceo.RoleLevel)
	assert.True(t, ceo.DecisionMaker)
	assert.Equal(t, scoring.Business("ceo@acmetech.com"), ceo.BusinessScore)
	assert.Equal(t, 98, ceo.PriorityScore)
	assert.Equal(t, []string{"saas", "searxng", "c-level", "decision_maker"}, ceo.Tags)

	jane := got[1]
	assert.Equal(t, "keep", jane.ID)
	assert.Equal(t, "Jane Doe", jane.Name)
	assert.Equal(t, "Freelance", jane.Company)
	assert.Equal(t, "Designer", jane.Role)
	assert.Contains(t, jane.Tags, "personal_mailbox")
	assert.Equal(t, scoring.Personal("jane.doe@gmail.com"), jane.PersonalScore)
}

func TestEnrichReplacesGenericName(t *testing.T) {
	got := New().Enrich([]models.Prospect{{Email: "sales@northwind.io", Name: "Sales"}}, "")
	require.Len(t, got, 1)
	assert.Equal(t, "Northwind", got[0].Name)
	assert.NotEmpty(t, got[0].ID)
}

func TestPriorityScore(t *testing.T) {
	support := scoring.Role{Priority: scoring.PriorityLow}
	exec := scoring.Role{Priority: scoring.PriorityHighest, DecisionMaker: true}

	assert.Equal(t, 12, PriorityScore(0, support))
	assert.Equal(t, 100, PriorityScore(150, exec))
	assert.Equal(t, 42, PriorityScore(50, support))
	for _, c := range []int{-50, 0, 50, 100, 150, 1000} {
		s := PriorityScore(c, exec)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 100)
	}
}
