package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// CodeSender dispatches a one-time code to a phone number. The transport is
// opaque to the OTP service; a failed send is surfaced, never retried here.
type CodeSender interface {
	SendCode(phone, code string) error
}

// TwilioSender sends OTP codes as SMS via Twilio
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a Twilio-backed sender from environment credentials
func NewTwilioSender() (*TwilioSender, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_SMS_FROM") // Format: "+14155238886"

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioSender{client: client, from: from}, nil
}

// SendCode sends the OTP SMS via Twilio
func (t *TwilioSender) SendCode(phone, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo("+91" + phone)
	params.SetBody(fmt.Sprintf("Your QuickServe verification code is %s. It expires in 5 minutes.", code))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send OTP SMS: %v", err)
		return err
	}

	log.Printf("✅ OTP SMS sent! SID: %s", *resp.Sid)
	return nil
}

// LogSender writes codes to the log instead of sending SMS. Used when Twilio
// credentials are absent (local development, tests).
type LogSender struct{}

func (LogSender) SendCode(phone, code string) error {
	log.Printf("📱 [dev] OTP for %s: %s", phone, code)
	return nil
}
