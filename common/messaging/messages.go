package messaging

import (
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/constants"
)

var subjectTokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")

// BatchSubject is the subject BatchReady events of one campaign are published on
func BatchSubject(campaignID string) string {
	token := subjectTokenReplacer.Replace(strings.TrimSpace(campaignID))
	if token == "" {
		token = "_"
	}
	return constants.BatchSubjectPrefix + "." + token
}
