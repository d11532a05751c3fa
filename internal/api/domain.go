package api

import (
	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/internal/transfer"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Categories categories.System
	Tags       tags.System
	Prompts    prompts.System
	Transfer   transfer.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	categoriesSystem := categories.New(db, runtime.Logger)
	tagsSystem := tags.New(db, runtime.Logger)

	promptsSystem := prompts.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	transferSystem := transfer.New(
		promptsSystem,
		categoriesSystem,
		runtime.Storage,
		runtime.Transfer,
		runtime.Logger,
	)

	return &Domain{
		Categories: categoriesSystem,
		Tags:       tagsSystem,
		Prompts:    promptsSystem,
		Transfer:   transferSystem,
	}
}
