package inbound

type StatusResponse struct {
	Enabled bool `json:"enabled"`
}

type BeginEnrollmentRequest struct {
	AccountLabel string `json:"account_label"`
}

type BeginEnrollmentResponse struct {
	AlreadyEnabled bool     `json:"already_enabled,omitempty"`
	AccountLabel   string   `json:"account_label,omitempty"`
	Issuer         string   `json:"issuer,omitempty"`
	Secret         string   `json:"secret,omitempty"`
	URI            string   `json:"provisioning_uri,omitempty"`
	QRImage        string   `json:"qr_image,omitempty"`
	Instructions   []string `json:"instructions,omitempty"`
}

func (r BeginEnrollmentResponse) Message() string {
	if r.AlreadyEnabled {
		return "Two-factor authentication is already enabled"
	}
	return "Scan the QR code and confirm with a code from your app"
}

type CodeRequest struct {
	Code string `json:"code"`
}

type ConfirmEnrollmentResponse struct {
	Enabled bool `json:"enabled"`

	message string
}

func (r ConfirmEnrollmentResponse) Message() string {
	return r.message
}

type VerifyResponse struct {
	AccessToken string `json:"access_token"`
}

func (VerifyResponse) Message() string {
	return "Code verified"
}
