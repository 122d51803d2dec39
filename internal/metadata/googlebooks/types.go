package googlebooks

import (
	"strings"

	"github.com/lilizblack/bookeareads-server/internal/metadata"
)

// volumesResponse is the wire format of /volumes.
type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	ImageLinks          imageLinks           `json:"imageLinks"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

func (v *volumeInfo) toCandidate() metadata.Candidate {
	c := metadata.Candidate{
		Title:       v.Title,
		Publisher:   v.Publisher,
		Description: v.Description,
		Pages:       v.PageCount,
		Genres:      v.Categories,
	}
	if len(v.Authors) > 0 {
		c.Author = v.Authors[0]
	}
	// PublishedDate may be "2006", "2006-01" or "2006-01-02".
	if len(v.PublishedDate) >= 4 {
		c.PublishYear = v.PublishedDate[:4]
	}

	// Prefer ISBN-13 over ISBN-10.
	for _, id := range v.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			c.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && c.ISBN == "" {
			c.ISBN = id.Identifier
		}
	}

	cover := v.ImageLinks.Thumbnail
	if cover == "" {
		cover = v.ImageLinks.SmallThumbnail
	}
	// Thumbnails come back over plain HTTP.
	c.CoverURL = strings.Replace(cover, "http://", "https://", 1)

	return c
}
