package openlibrary

import (
	"fmt"
	"strconv"

	"github.com/lilizblack/bookeareads-server/internal/metadata"
)

const maxGenres = 5

// searchResponse is the wire format of /search.json.
type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []doc `json:"docs"`
}

type doc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	ISBN             []string `json:"isbn"`
	CoverID          int64    `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	PagesMedian      int      `json:"number_of_pages_median"`
	Subject          []string `json:"subject"`
}

func (d *doc) toCandidate() metadata.Candidate {
	c := metadata.Candidate{
		Title: d.Title,
		Pages: d.PagesMedian,
	}
	if len(d.AuthorName) > 0 {
		c.Author = d.AuthorName[0]
	}
	if len(d.ISBN) > 0 {
		c.ISBN = d.ISBN[0]
	}
	if len(d.Publisher) > 0 {
		c.Publisher = d.Publisher[0]
	}
	if d.FirstPublishYear > 0 {
		c.PublishYear = strconv.Itoa(d.FirstPublishYear)
	}
	if d.CoverID > 0 {
		c.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", d.CoverID)
	}
	if len(d.Subject) > maxGenres {
		c.Genres = d.Subject[:maxGenres]
	} else {
		c.Genres = d.Subject
	}
	return c
}
