package email

import (
	"context"
	"fmt"

	"github.com/mpetrenko/flightcycle/config"
	"github.com/mpetrenko/flightcycle/internal/kafka"
	"github.com/wneessen/go-mail"
)

// Sender turns booking events into plain-text customer emails. Send failures
// are for the caller to log; they never influence booking state.
type Sender struct {
	cfg config.SMTPConfig
}

func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) client() (*mail.Client, error) {
	return mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}

	subject, body := s.compose(event)
	if subject == "" {
		return nil
	}

	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return err
	}
	if err := msg.To(event.Email); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return c.DialAndSendWithContext(ctx, msg)
}

func (s *Sender) compose(event kafka.BookingEvent) (subject, body string) {
	amount := fmt.Sprintf("%.2f %s", float64(event.AmountCents)/100, event.Currency)

	switch event.Type {
	case kafka.EventBookingConfirmed:
		subject = "Booking Confirmed - " + event.Reference
		body = fmt.Sprintf("Dear Customer,\n\n"+
			"Your booking is confirmed.\n\n"+
			"Booking Reference: %s\n"+
			"Flight: %s\n"+
			"Route: %s\n"+
			"Seats: %d\n"+
			"Amount Paid: %s\n\n"+
			"Happy flying!\n",
			event.Reference, event.FlightNumber, event.Route, event.Seats, amount)
	case kafka.EventPaymentFailed:
		subject = "Payment Failed - Order " + event.OrderID
		body = fmt.Sprintf("Dear Customer,\n\n"+
			"Your payment for flight %s (%s) could not be verified and no booking was made.\n"+
			"Order: %s\nAmount: %s\nReason: %s\n\n"+
			"Any held seats have been released. Please try booking again.\n",
			event.FlightNumber, event.Route, event.OrderID, amount, event.Reason)
	case kafka.EventBookingCancelled:
		subject = "Booking Cancelled - " + event.Reference
		body = fmt.Sprintf("Dear Customer,\n\n"+
			"Your booking %s for flight %s (%s) has been cancelled.\n"+
			"Reason: %s\n\n"+
			"If a refund applies it will be processed separately.\n",
			event.Reference, event.FlightNumber, event.Route, event.Reason)
	case kafka.EventHoldCancelled:
		subject = "Reservation Cancelled - Order " + event.OrderID
		body = fmt.Sprintf("Dear Customer,\n\n"+
			"Flight %s (%s) has been rescheduled and your pending reservation "+
			"could not be carried over.\n\nOrder: %s\n\n"+
			"No payment was taken. Please book again on the new schedule.\n",
			event.FlightNumber, event.Route, event.OrderID)
	case kafka.EventReservationSwept:
		subject = "Reservation Expired - Order " + event.OrderID
		body = fmt.Sprintf("Dear Customer,\n\n"+
			"Your payment for flight %s (%s) was not completed in time and the "+
			"reservation has been released.\n\nOrder: %s\n",
			event.FlightNumber, event.Route, event.OrderID)
	}
	return subject, body
}
