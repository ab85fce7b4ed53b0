package lookup

import (
	"context"

	"shelf/internal/platform/googlebooks"
	"shelf/internal/platform/openlibrary"
)

type googleBooksCatalog struct {
	client *googlebooks.Client
}

// NewGoogleBooksCatalog adapts the Google Books volumes search.
func NewGoogleBooksCatalog(client *googlebooks.Client) Catalog {
	return googleBooksCatalog{client: client}
}

func (c googleBooksCatalog) Search(ctx context.Context, query string, limit int) ([]CatalogItem, error) {
	res, err := c.client.SearchVolumes(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	items := make([]CatalogItem, 0, len(res.Items))
	for _, v := range res.Items {
		items = append(items, CatalogItem{
			ID:         v.ID,
			Title:      v.VolumeInfo.Title,
			Authors:    v.VolumeInfo.Authors,
			Categories: v.VolumeInfo.Categories,
			Thumbnail:  v.VolumeInfo.ImageLinks.Thumbnail,
		})
	}
	return items, nil
}

type openLibraryCatalog struct {
	client *openlibrary.Client
}

// NewOpenLibraryCatalog adapts Open Library search.json. Subjects stand in
// for categories and the cover id becomes a covers.openlibrary.org URL.
func NewOpenLibraryCatalog(client *openlibrary.Client) Catalog {
	return openLibraryCatalog{client: client}
}

func (c openLibraryCatalog) Search(ctx context.Context, query string, limit int) ([]CatalogItem, error) {
	res, err := c.client.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	items := make([]CatalogItem, 0, len(res.Docs))
	for _, d := range res.Docs {
		items = append(items, CatalogItem{
			ID:         d.Key,
			Title:      d.Title,
			Authors:    d.AuthorNames,
			Categories: d.Subjects,
			Thumbnail:  c.client.CoverURL(d.CoverID),
		})
	}
	return items, nil
}
