package payu

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"payu-adapter/internal/payment"

	"github.com/go-playground/validator"
)

const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"
)

const (
	gatewayName = "PayU"

	baseURLTemplate = "https://secure%s.payu.com"
	sandboxInfix    = ".snd"
	authorizePath   = "/pl/standard/user/oauth/authorize"
	ordersPath      = "/api/v2_1/orders"

	defaultHTTPTimeout = 15 * time.Second
)

// Options are the merchant credentials for one PayU point of sale.
// MD5Key is the second key of the POS; it is required but only used for
// signature checks, which this adapter does not perform.
type Options struct {
	Mode              string `json:"mode" validate:"required,oneof=sandbox live"`
	PosID             string `json:"pos_id" validate:"required"`
	MD5Key            string `json:"md5_key" validate:"required"`
	OAuthClientID     string `json:"oauth_client_id" validate:"required"`
	OAuthClientSecret string `json:"oauth_client_secret" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeSandbox
	}
	return o
}

// Validate reports empty credentials as a payment.ValidationError and an
// unknown mode as a plain error.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() != "required" {
			return fmt.Errorf("payu: invalid option %s %q", fe.Field(), fmt.Sprint(fe.Value()))
		}
		missing = append(missing, fe.Field())
	}
	return payment.NewValidationError(missing...)
}

// BaseURL returns the gateway host for the given mode. Sandbox inserts the
// ".snd" infix into the host name.
func BaseURL(mode string) string {
	infix := ""
	if mode == ModeSandbox {
		infix = sandboxInfix
	}
	return fmt.Sprintf(baseURLTemplate, infix)
}
