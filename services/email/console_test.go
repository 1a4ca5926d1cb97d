package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/trezcool/bolsa/core"
	logsvc "github.com/trezcool/bolsa/services/logger"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := &core.Config{AppName: "Bolsa", FrontendBaseURL: "https://bolsa.test"}
	svc := NewConsoleServiceMock(conf, logsvc.NewMemoryLogger())

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ana Mussa", Address: "ana@example.com"}},
			Subject:      "Welcome",
			TemplateName: "student_welcome",
			TemplateData: map[string]interface{}{"Name": "Ana Mussa", "StudentID": "s-1"},
		},
		&core.EmailMessage{Subject: "nobody to send to", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@example.com"}}, Subject: "empty"},
	)

	sent := svc.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("len(SentMessages()) = %d; want 1", len(sent))
	}
	if !strings.Contains(sent[0].TextContent, "Ana Mussa") {
		t.Errorf("TextContent = %q; want it to mention the student", sent[0].TextContent)
	}
	if !strings.Contains(sent[0].HTMLContent, "https://bolsa.test") {
		t.Errorf("HTMLContent = %q; want it to link the frontend", sent[0].HTMLContent)
	}

	svc.Reset()
	if got := len(svc.SentMessages()); got != 0 {
		t.Errorf("len(SentMessages()) after Reset = %d; want 0", got)
	}
}
