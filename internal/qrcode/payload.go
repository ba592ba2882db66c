package qrcode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var ErrInvalidPayload = errors.New("invalid qr code payload")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return v
}

// URLData is the payload for url codes.
type URLData struct {
	URL string `json:"url" validate:"notblank,http_url"`
}

// FileData is the payload for pdf, image and video codes.
type FileData struct {
	URL      string `json:"url,omitempty" validate:"required_without=FileURL,omitempty,http_url"`
	FileURL  string `json:"fileUrl,omitempty" validate:"required_without=URL,omitempty,http_url"`
	FileName string `json:"fileName,omitempty"`
}

// Link returns whichever of URL or FileURL is set.
func (f FileData) Link() string {
	if f.URL != "" {
		return f.URL
	}

	return f.FileURL
}

type PhoneData struct {
	Phone string `json:"phone" validate:"notblank"`
}

type EmailData struct {
	Email   string `json:"email" validate:"notblank,email"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

type SMSData struct {
	Phone   string `json:"phone" validate:"notblank"`
	Message string `json:"message,omitempty"`
}

// LocationData holds either coordinates or a free-form address.
type LocationData struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"required_with=Latitude,omitempty,longitude"`
	Address   string   `json:"address,omitempty" validate:"required_without_all=Latitude Longitude"`
}

type VCardData struct {
	FirstName    string `json:"firstName" validate:"notblank"`
	LastName     string `json:"lastName,omitempty"`
	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Website      string `json:"website,omitempty" validate:"omitempty,http_url"`
	Address      string `json:"address,omitempty"`
}

type WiFiData struct {
	SSID       string `json:"ssid" validate:"notblank"`
	Password   string `json:"password,omitempty"`
	Encryption string `json:"encryption,omitempty" validate:"omitempty,oneof=WPA WEP nopass"`
	Hidden     bool   `json:"hidden,omitempty"`
}

type TextData struct {
	Text string `json:"text" validate:"notblank"`
}

type MenuItem struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

type MenuSection struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items" validate:"dive"`
}

type MenuData struct {
	RestaurantName string        `json:"restaurantName"`
	Sections       []MenuSection `json:"sections" validate:"dive"`
}

type EventData struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
}

type Link struct {
	Title string `json:"title"`
	URL   string `json:"url" validate:"notblank,http_url"`
}

type MultiURLData struct {
	Title string `json:"title,omitempty"`
	Links []Link `json:"links" validate:"required,min=1,dive"`
}

type PaymentData struct {
	Method    string `json:"method"`
	Recipient string `json:"recipient" validate:"notblank"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Note      string `json:"note,omitempty"`
}

type AppDownloadData struct {
	AppName     string `json:"appName"`
	IOSURL      string `json:"iosUrl,omitempty" validate:"required_without_all=AndroidURL FallbackURL,omitempty,http_url"`
	AndroidURL  string `json:"androidUrl,omitempty" validate:"required_without_all=IOSURL FallbackURL,omitempty,http_url"`
	FallbackURL string `json:"fallbackUrl,omitempty" validate:"required_without_all=IOSURL AndroidURL,omitempty,http_url"`
}

// DecodeData unmarshals raw into the payload struct for the given type.
func DecodeData[T any](raw json.RawMessage) (T, error) {
	var data T

	if len(raw) == 0 {
		return data, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return data, nil
}

func decodeAndValidate[T any](raw json.RawMessage) error {
	data, err := DecodeData[T](raw)
	if err != nil {
		return err
	}

	if err := validate.Struct(data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return nil
}

// ValidateData checks that raw carries the fields the type cannot work without.
func ValidateData(t Type, raw json.RawMessage) error {
	switch t {
	case TypeURL:
		return decodeAndValidate[URLData](raw)
	case TypePDF, TypeImage, TypeVideo:
		return decodeAndValidate[FileData](raw)
	case TypePhone:
		return decodeAndValidate[PhoneData](raw)
	case TypeEmail:
		return decodeAndValidate[EmailData](raw)
	case TypeSMS:
		return decodeAndValidate[SMSData](raw)
	case TypeLocation:
		return decodeAndValidate[LocationData](raw)
	case TypeVCard:
		return decodeAndValidate[VCardData](raw)
	case TypeWiFi:
		return decodeAndValidate[WiFiData](raw)
	case TypeText:
		return decodeAndValidate[TextData](raw)
	case TypeMultiURL:
		return decodeAndValidate[MultiURLData](raw)
	case TypeMenu:
		return decodeAndValidate[MenuData](raw)
	case TypeEvent:
		return decodeAndValidate[EventData](raw)
	case TypePayment:
		return decodeAndValidate[PaymentData](raw)
	case TypeAppDownload:
		return decodeAndValidate[AppDownloadData](raw)
	}

	return fmt.Errorf("%w: unsupported type %q", ErrInvalidPayload, t)
}
