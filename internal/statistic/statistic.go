// Package statistic draws the Akasha Database Spiral Abyss statistics picture:
// period summary, the floor 12 usage ranking, and the most used teams per half.
package statistic

import (
	"context"
	"fmt"
	"image"

	"gsabyss/internal/akasha"
	"gsabyss/internal/logging"
	"gsabyss/internal/render"
	"gsabyss/internal/store"

	"golang.org/x/sync/errgroup"
)

// Picture geometry.
const (
	Width        = 700
	Height       = topHeight + middleHeight + bottomHeight
	topHeight    = 250
	middleHeight = 375
	bottomHeight = 595
)

// CategoryCharacter is the asset cache category character icons are stored under.
const CategoryCharacter = "char"

// IconSource makes remote icons available on disk. *store.AssetCache implements it.
type IconSource interface {
	Prefetch(ctx context.Context, reqs []store.IconRequest) map[store.IconRequest]string
}

// Drawer renders statistics pictures. It is safe for concurrent use.
type Drawer struct {
	theme   *render.Theme
	icons   IconSource
	iconURL string // printf pattern taking the character's English name
}

// NewDrawer creates a Drawer. icons may be nil, in which case characters are drawn as
// named swatches.
func NewDrawer(theme *render.Theme, icons IconSource, iconURL string) *Drawer {
	if theme == nil {
		theme = render.DefaultTheme()
	}
	return &Drawer{theme: theme, icons: icons, iconURL: iconURL}
}

func (d *Drawer) iconRequest(c akasha.Character) store.IconRequest {
	return store.IconRequest{
		URL:      fmt.Sprintf(d.iconURL, c.EnName),
		Category: CategoryCharacter,
		Name:     c.Name,
	}
}

// portraits resolves character icons after a prefetch.
type portraits struct {
	paths map[store.IconRequest]string
	req   func(akasha.Character) store.IconRequest
}

func (p portraits) load(c akasha.Character) *image.RGBA {
	path, ok := p.paths[p.req(c)]
	if !ok {
		return nil
	}
	img, err := store.LoadImage(path)
	if err != nil {
		logging.RenderWarn("Icon %s unreadable: %v", path, err)
		return nil
	}
	return img
}

// Draw renders the statistics picture.
func (d *Drawer) Draw(ctx context.Context, data *akasha.Data) (*image.RGBA, error) {
	timer := logging.StartTimer(logging.CategoryRender, "statistics "+data.ScheduleVersionDesc)
	defer timer.Stop()

	pics := portraits{req: d.iconRequest}
	if d.icons != nil {
		reqs := make([]store.IconRequest, 0, len(data.Characters))
		for _, c := range data.Characters {
			reqs = append(reqs, d.iconRequest(c))
		}
		pics.paths = d.icons.Prefetch(ctx, reqs)
	}

	parts := make([]*image.RGBA, 3)
	var eg errgroup.Group
	regions := []func(*render.Faces) *image.RGBA{
		func(f *render.Faces) *image.RGBA { return drawTop(f, data) },
		func(f *render.Faces) *image.RGBA { return drawMiddle(f, data.Characters, pics) },
		func(f *render.Faces) *image.RGBA { return drawBottom(f, d.theme, data, pics) },
	}
	for i, region := range regions {
		eg.Go(func() error {
			f, err := d.theme.NewFaces()
			if err != nil {
				return err
			}
			defer f.Close()
			parts[i] = region(f)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := render.NewCanvas(Width, Height, render.BgColor)
	y := 0
	for _, p := range parts {
		render.Paste(out, p, image.Pt(0, y))
		y += p.Bounds().Dy()
	}
	return out, nil
}

// Render draws the statistics picture and encodes it as PNG.
func (d *Drawer) Render(ctx context.Context, data *akasha.Data) ([]byte, error) {
	img, err := d.Draw(ctx, data)
	if err != nil {
		return nil, err
	}
	return render.EncodePNG(img)
}
