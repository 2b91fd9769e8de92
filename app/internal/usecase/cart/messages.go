package cart

import "strings"

// Messages are the fixed texts shown to the shopper, one per failure kind.
type Messages struct {
	OutOfStock   string
	AddFailed    string
	RemoveFailed string
	UpdateFailed string
}

var messageCatalog = map[string]Messages{
	"pt-br": {
		OutOfStock:   "Quantidade solicitada fora de estoque",
		AddFailed:    "Erro na adição do produto",
		RemoveFailed: "Erro na remoção do produto",
		UpdateFailed: "Erro na alteração de quantidade do produto",
	},
	"en": {
		OutOfStock:   "Requested amount is out of stock",
		AddFailed:    "Could not add the product",
		RemoveFailed: "Could not remove the product",
		UpdateFailed: "Could not change the product amount",
	},
}

// DefaultLocale is Brazilian Portuguese, the storefront's audience.
const DefaultLocale = "pt-BR"

// MessagesFor returns the catalog for locale, falling back to DefaultLocale.
func MessagesFor(locale string) Messages {
	if m, ok := messageCatalog[strings.ToLower(locale)]; ok {
		return m
	}
	return messageCatalog[strings.ToLower(DefaultLocale)]
}

func (m Messages) isZero() bool {
	return m == Messages{}
}
