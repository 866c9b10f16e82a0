package emailsvc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/apsas/core"
	testutil "github.com/trezcool/apsas/tests"
)

func testConfig() *core.Config {
	conf := core.NewConfig()
	conf.AppName = "APSAS Insight"
	conf.SendgridApiKey = "SG.test"
	return conf
}

func reportMessage(t *testing.T) *core.EmailMessage {
	t.Helper()
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Head Of Dept", Address: "hod@apsas.edu"}},
		Subject:      "Overview report",
		TemplateName: "report_ready",
		TemplateData: map[string]interface{}{
			"Report":      "Overview",
			"GeneratedOn": "2024-03-15",
			"Filename":    "Overview_2024-03-15.xlsx",
			"Failures":    1,
		},
	}
	require.NoError(t, msg.Attach(strings.NewReader("PK\x03\x04 workbook"), "Overview_2024-03-15.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	return msg
}

func TestConsoleService(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(testConfig(), &out, testutil.NewLogger())

	svc.SendMessages(reportMessage(t), &core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"})
	svc.Wait()

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, `The "Overview" report generated on 2024-03-15 is attached (Overview_2024-03-15.xlsx).`)
	assert.Contains(t, sent[0].TextContent, "1 section(s) could not be built")
	assert.Contains(t, sent[0].HTMLContent, "<strong>Overview</strong>")

	printed := out.String()
	assert.Contains(t, printed, "Subject: [APSAS Insight] Overview report\r\n")
	assert.Contains(t, printed, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, printed, `attachment; filename="Overview_2024-03-15.xlsx"`)
}

func TestConsoleService_renderError(t *testing.T) {
	logger := testutil.NewLogger()
	svc := NewConsoleService(testConfig(), nil, logger)

	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: "hod@apsas.edu"}},
		TemplateName: "report_ready",
		TemplateData: map[string]interface{}{}, // missing keys
	})
	svc.Wait()

	assert.Empty(t, svc.Sent())
	assert.Len(t, logger.Entries("error"), 1)
}

func TestSendgridService(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]interface{}
		auth   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(data, &body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	orig := host
	host = srv.URL
	defer func() { host = orig }()

	logger := testutil.NewLogger()
	svc := NewSendgridService(testConfig(), logger)
	svc.SendMessages(reportMessage(t))
	svc.Wait()

	require.Len(t, bodies, 1)
	assert.Equal(t, "Bearer SG.test", auth)
	assert.Empty(t, logger.Entries("error"))

	body := bodies[0]
	perso := body["personalizations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "[APSAS Insight] Overview report", perso["subject"])
	attachments := body["attachments"].([]interface{})
	require.Len(t, attachments, 1)
	assert.Equal(t, "Overview_2024-03-15.xlsx", attachments[0].(map[string]interface{})["filename"])
	assert.Len(t, body["content"], 2)
}
