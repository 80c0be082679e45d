package utils

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
)

// watiMessage is the session-message payload the Wati gateway accepts.
type watiMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendOTPWhatsApp delivers the verification code over WhatsApp through the
// school's Wati account. Delivery is best-effort: failures are logged so the
// caller's flow is never blocked on the gateway.
func SendOTPWhatsApp(phoneNumber string, otp string) {
	payload, err := json.Marshal(watiMessage{
		Phone:   phoneNumber,
		Message: "Your OTP code is: " + otp,
	})
	if err != nil {
		log.Printf("Failed to build WhatsApp OTP payload: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, os.Getenv("WATI_URL")+"/api/v1/sendSessionMessage", bytes.NewReader(payload))
	if err != nil {
		log.Printf("Failed to build Wati request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("WATI_API_KEY"))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Failed to send OTP via WhatsApp: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Wati gateway rejected OTP message: status %d", resp.StatusCode)
	}
}
