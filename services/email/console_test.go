package emailsvc

import (
	"io/ioutil"
	"log"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whenitsdone1/capstone2024/assets"
	"github.com/whenitsdone1/capstone2024/core"
	logsvc "github.com/whenitsdone1/capstone2024/services/logger"
)

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)
	svc := NewConsoleServiceMock(conf, logger)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Jo", Address: "jo@uni.edu.au"}},
			Subject:      "Milestone 2 submission received",
			TemplateName: "submission_received",
			TemplateData: map[string]interface{}{"Name": "Jo", "Subject": "CSE1ABC", "Milestone": 2, "RecordID": "r1"},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "qa@uni.edu.au"}}, Subject: "empty"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "We received your Milestone 2 checklist for CSE1ABC.")
	assert.Contains(t, sent[0].TextContent, "Reference: r1")
	assert.Contains(t, sent[0].HTMLContent, "CSE1ABC")
}
