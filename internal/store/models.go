package store

import "github.com/goliatone/go-collab/articles"

type (
	Article              = articles.Article
	VersionConflictError = articles.VersionConflictError
)
