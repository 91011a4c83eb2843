package intake

import (
	"net/url"
	"strconv"

	"github.com/caarlos0/env/v11"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

// AgreementStatement is posted verbatim under the agreement key whenever the
// shopper accepted the advance payment terms.
const AgreementStatement = "I agree to pay a 50% advance before my hoodie is produced."

// FieldKeys are the opaque entry names the remote form assigns to each
// question. They change whenever the form is rebuilt, so they come from
// configuration.
type FieldKeys struct {
	Email     string `env:"EMAIL" envDefault:"entry.1234567890"`
	Name      string `env:"NAME" envDefault:"entry.1234567891"`
	Year      string `env:"YEAR" envDefault:"entry.1234567892"`
	Major     string `env:"MAJOR" envDefault:"entry.1234567893"`
	Phone     string `env:"PHONE" envDefault:"entry.1234567894"`
	Payment   string `env:"PAYMENT" envDefault:"entry.1234567895"`
	Size      string `env:"SIZE" envDefault:"entry.1234567896"`
	Rating    string `env:"RATING" envDefault:"entry.1234567897"`
	Agreement string `env:"AGREEMENT" envDefault:"entry.1234567898"`
}

// DefaultFieldKeys returns the keys from the envDefault tags alone, ignoring
// the process environment.
func DefaultFieldKeys() FieldKeys {
	var keys FieldKeys
	// string fields with literal defaults cannot fail to parse
	_ = env.ParseWithOptions(&keys, env.Options{Environment: map[string]string{}})
	return keys
}

type Encoder struct {
	keys FieldKeys
}

func NewEncoder(keys FieldKeys) *Encoder {
	return &Encoder{keys: keys}
}

// Encode flattens a draft into the form post. Every field is written, empty
// or not; the agreement key is only present when the terms were accepted.
func (e *Encoder) Encode(d domain.OrderDraft) url.Values {
	values := url.Values{}
	values.Set(e.keys.Email, d.Email)
	values.Set(e.keys.Name, d.Name)
	values.Set(e.keys.Year, d.Year)
	values.Set(e.keys.Major, d.Major)
	values.Set(e.keys.Phone, d.Phone)
	values.Set(e.keys.Payment, string(d.PaymentMethod))
	values.Set(e.keys.Size, domain.SizeLabel(d.Size))
	values.Set(e.keys.Rating, strconv.Itoa(d.Rating))
	if d.AgreedToAdvance {
		values.Set(e.keys.Agreement, AgreementStatement)
	}
	return values
}
