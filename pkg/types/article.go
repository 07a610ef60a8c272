// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Article represents a scientific article returned by a literature query.
// Each article carries an identifier, metadata, source, and relevance score.
type Article struct {
	// Identifier is the canonical ID from the source (DOI, arXiv ID, or URL).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the article title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the article authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the article abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Source identifies which backend found this article (e.g. "openalex", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// URL is a landing page for the article.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
