package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// SendOTPEmail sends the OTP to the user's email address
func SendOTPEmail(email string, otp string) {
	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_SENDER"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your OTP Code")
	m.SetBody("text/plain", "Your OTP code is: "+otp)

	d := gomail.NewDialer(
		os.Getenv("SMTP_HOST"),
		465,
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
	)

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send OTP email to %s: %v", email, err)
		return
	}

	log.Printf("OTP email successfully sent to %s", email)
}

// SendFiveStarEmail congratulates an ambassador who just reached the
// five-star tier and states the fee benefit they earned.
func SendFiveStarEmail(email, name string, feeBenefitPercent float64) {
	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_SENDER"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "You are now a 5-Star Ambassador!")
	m.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nCongratulations! Your confirmed referrals have made you a 5-Star Ambassador. "+
			"A fee benefit of %.1f%% now applies to your account for the current academic year.\n\n"+
			"Thank you for supporting our school community.",
		name, feeBenefitPercent))

	d := gomail.NewDialer(
		os.Getenv("SMTP_HOST"),
		465,
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
	)

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send five-star email to %s: %v", email, err)
		return
	}

	log.Printf("Five-star email successfully sent to %s", email)
}
