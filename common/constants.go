package common

const (
	// AppName is the name of the application
	AppName = "prospect-discovery"

	// BatchArchivePrefix is the object prefix used when archiving batches
	BatchArchivePrefix = "campaigns"
)

// Audience is the targeting mode of a discovery request
type Audience string

const (
	// AudienceAny keeps every valid candidate
	AudienceAny Audience = "any"
	// AudienceBusiness targets decision makers and company inboxes (ToB)
	AudienceBusiness Audience = "business"
	// AudienceConsumer targets individual consumers on personal mailboxes (ToC)
	AudienceConsumer Audience = "consumer"
)

// ParseAudience maps the loose labels used by callers (b2b, tob, b2c, toc, ...) to an Audience
func ParseAudience(s string) Audience {
	switch s {
	case "business", "b2b", "tob", "B2B", "ToB":
		return AudienceBusiness
	case "consumer", "b2c", "toc", "B2C", "ToC", "individual":
		return AudienceConsumer
	default:
		return AudienceAny
	}
}
