package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkfacil/internal/db"
	"parkfacil/internal/pricing"
	"parkfacil/internal/repository"
)

// NotifyService sends reservation receipts and reminders over SendGrid email
// and Twilio SMS. Sends run in background goroutines so the reservation flow
// never waits on a provider.
type NotifyService struct {
	Identity repository.IdentityDirectory
}

func NewNotifyService(identity repository.IdentityDirectory) *NotifyService {
	return &NotifyService{Identity: identity}
}

func (n *NotifyService) ReservationCreated(res *db.Reservation) {
	subject := fmt.Sprintf("Reservation %s confirmed", res.Code)
	body := fmt.Sprintf(
		"Hello,\n\nYour parking reservation %s is confirmed.\nEntry: %s\n\nThank you for parking with us.",
		res.Code, res.EntryTime.Format("02 Jan 2006 15:04 MST"),
	)
	sms := fmt.Sprintf("Parking: reservation %s confirmed. Entry %s.",
		res.Code, res.EntryTime.Format("02/01 15:04"))
	n.dispatch(res, subject, body, sms)
}

func (n *NotifyService) ReservationCompleted(res *db.Reservation) {
	amount := "0.00"
	if res.AmountCents != nil {
		amount = pricing.FormatCents(*res.AmountCents)
	}
	exit := ""
	if res.ExitTime != nil {
		exit = res.ExitTime.Format("02 Jan 2006 15:04 MST")
	}
	subject := fmt.Sprintf("Reservation %s completed - total %s", res.Code, amount)
	body := fmt.Sprintf(
		"Hello,\n\nYour parking reservation %s is completed.\nEntry: %s\nExit: %s\nTotal: %s\n\nThank you for parking with us.",
		res.Code, res.EntryTime.Format("02 Jan 2006 15:04 MST"), exit, amount,
	)
	sms := fmt.Sprintf("Parking: reservation %s completed. Total %s.", res.Code, amount)
	n.dispatch(res, subject, body, sms)
}

func (n *NotifyService) ReservationCancelled(res *db.Reservation) {
	subject := fmt.Sprintf("Reservation %s cancelled", res.Code)
	body := fmt.Sprintf("Hello,\n\nYour parking reservation %s has been cancelled. No fee was charged.", res.Code)
	sms := fmt.Sprintf("Parking: reservation %s cancelled.", res.Code)
	n.dispatch(res, subject, body, sms)
}

// ReservationOverdue is used by the sweep job for stays past their expected
// exit. It reminds, it never transitions.
func (n *NotifyService) ReservationOverdue(res *db.Reservation) {
	expected := ""
	if res.ExpectedExit != nil {
		expected = res.ExpectedExit.Format("02 Jan 2006 15:04 MST")
	}
	subject := fmt.Sprintf("Reservation %s past expected exit", res.Code)
	body := fmt.Sprintf(
		"Hello,\n\nYour parking reservation %s was expected to end at %s and is still active.\nAdditional time is billed per started 15-minute block.",
		res.Code, expected,
	)
	sms := fmt.Sprintf("Parking: reservation %s is past its expected exit (%s).", res.Code, expected)
	n.dispatch(res, subject, body, sms)
}

func (n *NotifyService) dispatch(res *db.Reservation, subject, body, sms string) {
	if n == nil || n.Identity == nil {
		return
	}
	customer, err := n.Identity.Customer(res.CustomerID)
	if err != nil {
		log.Printf("Notify: could not resolve customer %d for reservation %s: %v", res.CustomerID, res.Code, err)
		return
	}

	go func() {
		if err := sendEmail(customer.Email, customer.Name, subject, body); err != nil {
			log.Printf("Notify: email for reservation %s failed: %v", res.Code, err)
		}
	}()
	if customer.Phone != "" {
		go func() {
			if err := sendSMS(customer.Phone, sms); err != nil {
				log.Printf("Notify: SMS for reservation %s failed: %v", res.Code, err)
			}
		}()
	}
}

func sendEmail(toEmail, toName, subject, plainText string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "ParkFacil"
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func sendSMS(toNumber, body string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("twilio credentials not fully configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("Notify: destination number %q is not E.164, SMS may fail", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(body)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
