package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping defines how book fields are analyzed and stored.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// id: stored verbatim so hits can be resolved back to books
	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	idField.Store = true
	idField.Index = true
	docMapping.AddFieldMappingsAt("id", idField)

	// user: exact term for scoping a shared index to one account
	userField := bleve.NewTextFieldMapping()
	userField.Analyzer = keyword.Name
	userField.Store = false
	docMapping.AddFieldMappingsAt("user", userField)

	// title: full text, highest relevance field
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleField)

	// author: full text
	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	authorField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorField)

	// description: searched but not stored (can be large)
	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = en.AnalyzerName
	descField.Store = false
	docMapping.AddFieldMappingsAt("description", descField)

	// genres: exact terms for filtering and facets
	genresField := bleve.NewTextFieldMapping()
	genresField.Analyzer = keyword.Name
	genresField.Store = true
	docMapping.AddFieldMappingsAt("genres", genresField)

	// status and format: exact terms for filtering
	statusField := bleve.NewTextFieldMapping()
	statusField.Analyzer = keyword.Name
	statusField.Store = true
	docMapping.AddFieldMappingsAt("status", statusField)

	formatField := bleve.NewTextFieldMapping()
	formatField.Analyzer = keyword.Name
	formatField.Store = true
	docMapping.AddFieldMappingsAt("format", formatField)

	yearField := bleve.NewNumericFieldMapping()
	yearField.Store = true
	docMapping.AddFieldMappingsAt("publish_year", yearField)

	ratingField := bleve.NewNumericFieldMapping()
	ratingField.Store = true
	docMapping.AddFieldMappingsAt("rating", ratingField)

	createdField := bleve.NewNumericFieldMapping()
	createdField.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdField)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
