package store

import (
	"context"
	"fmt"
	"io"

	"oli-admin/internal/model"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Items []struct {
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
		Price    int    `yaml:"price"`
		Unit     string `yaml:"unit"`
		Image    string `yaml:"image"`
	} `yaml:"items"`
	Articles []struct {
		Title string `yaml:"title"`
		Tag   string `yaml:"tag"`
		Desc  string `yaml:"desc"`
		Image string `yaml:"image"`
	} `yaml:"articles"`
}

// Seed creates every item and article listed in a YAML document.
// It returns how many of each were created.
func Seed(ctx context.Context, st Store, r io.Reader) (int, int, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return 0, 0, fmt.Errorf("parse seed: %w", err)
	}

	for i, it := range f.Items {
		_, err := st.CreateItem(ctx, model.Item{
			Name:     it.Name,
			Category: it.Category,
			Price:    it.Price,
			Unit:     it.Unit,
			Image:    it.Image,
		})
		if err != nil {
			return i, 0, err
		}
	}
	for i, a := range f.Articles {
		_, err := st.CreateArticle(ctx, model.Article{
			Title: a.Title,
			Tag:   a.Tag,
			Desc:  a.Desc,
			Image: a.Image,
		})
		if err != nil {
			return len(f.Items), i, err
		}
	}
	return len(f.Items), len(f.Articles), nil
}
