package uploader

import "fmt"

// Category classifies why an upload task was abandoned.
type Category int

const (
	// CategoryConfiguration indicates missing identity or album settings.
	CategoryConfiguration Category = iota + 1
	// CategoryConnectivity indicates the network policy forbids access now.
	CategoryConnectivity
	// CategoryAuthentication indicates the service rejected the credentials
	// or could not be reached to check them.
	CategoryAuthentication
	// CategoryCatalog indicates the configured album could not be resolved.
	CategoryCatalog
	// CategoryTransfer indicates the upload itself failed.
	CategoryTransfer
)

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryConnectivity:
		return "connectivity"
	case CategoryAuthentication:
		return "authentication"
	case CategoryCatalog:
		return "catalog"
	case CategoryTransfer:
		return "transfer"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// User-facing messages.
const (
	msgNoCredentials = "Set e-mail and password first."
	msgNoAlbum       = "Choose an album first."
	msgNoNetwork     = "Can't connect to internet to upload photos.\n\nEither internet is down or your connection in this application is set to allow Wi-Fi only."
	msgAuthFailed    = "Authentication failed.\n\nCheck your e-mail and password."
	msgNoAlbums      = "No albums found. Create one first."
	msgCatalogFailed = "Can't fetch the album list."
)

// Failure is a terminal task error. Message is suitable for display.
type Failure struct {
	Category Category
	Message  string
	Err      error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Category.String() + ": " + f.Message + ": " + f.Err.Error()
	}
	return f.Category.String() + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(c Category, msg string, err error) *Failure {
	return &Failure{Category: c, Message: msg, Err: err}
}
