// Package quickview draws the Spiral Abyss quick view: a header with the period's
// blessing and the floor's ley line disorders, followed by one chamber (vertical
// layout) or all chambers side by side (horizontal layout).
package quickview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"gsabyss/internal/cycle"
	"gsabyss/internal/hhw"
	"gsabyss/internal/logging"
	"gsabyss/internal/query"
	"gsabyss/internal/render"
	"gsabyss/internal/store"

	"golang.org/x/sync/errgroup"
)

// Width is the width of one chamber column.
const Width = 700

// ErrNoData is returned when the requested floor, chamber, or period is not in the
// dataset.
var ErrNoData = errors.New("no abyss data")

// NoDataError names the period that had no data.
type NoDataError struct {
	Floor   int
	Chamber int
	Key     time.Time
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no abyss data for floor %d chamber %d in %s", e.Floor, e.Chamber, cycle.Title(e.Key))
}

// Title is the player-facing name of the period.
func (e *NoDataError) Title() string {
	return cycle.Title(e.Key)
}

func (e *NoDataError) Unwrap() error {
	return ErrNoData
}

// Mode is the picture layout, fixed per request.
type Mode int

const (
	Vertical   Mode = iota // one chamber, 700 wide
	Horizontal             // every chamber side by side
)

func (m Mode) String() string {
	if m == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ModeFor returns the layout a query is drawn in.
func ModeFor(q query.Query) Mode {
	if q.AllChambers() {
		return Horizontal
	}
	return Vertical
}

// IconSource makes remote icons available on disk. *store.AssetCache implements it.
type IconSource interface {
	Prefetch(ctx context.Context, reqs []store.IconRequest) map[store.IconRequest]string
}

// Drawer renders quick views. It is safe for concurrent use.
type Drawer struct {
	theme *render.Theme
	icons IconSource
}

// NewDrawer creates a Drawer. icons may be nil, in which case every icon is drawn as a
// placeholder.
func NewDrawer(theme *render.Theme, icons IconSource) *Drawer {
	if theme == nil {
		theme = render.DefaultTheme()
	}
	return &Drawer{theme: theme, icons: icons}
}

// request is everything one quick view needs, resolved from the dataset up front.
type request struct {
	floor    int
	key      time.Time
	mode     Mode
	blessing hhw.Blessing
	variant  hhw.Variant
	chambers []numberedChamber
}

type numberedChamber struct {
	number int
	data   hhw.Chamber
}

func resolve(ds *hhw.Dataset, q query.Query) (*request, error) {
	noData := &NoDataError{Floor: q.Floor, Chamber: q.Chamber, Key: q.Key}
	if ds == nil {
		return nil, noData
	}

	variant, err := ds.Variant(q.Floor, q.ScheduleKey())
	if err != nil {
		logging.Get(logging.CategoryRender).Debug("Variant lookup failed: %v", err)
		return nil, noData
	}
	item, ok := ds.ScheduleItem(q.ScheduleKey())
	if !ok {
		return nil, noData
	}

	req := &request{
		floor:    q.Floor,
		key:      q.Key,
		mode:     ModeFor(q),
		blessing: item.Blessing,
		variant:  variant,
	}
	if req.mode == Vertical {
		ch, ok := variant.Chamber(q.Chamber)
		if !ok {
			return nil, noData
		}
		req.chambers = []numberedChamber{{number: q.Chamber, data: ch}}
		return req, nil
	}
	for i := 0; i < len(variant.Chambers) && i < query.MaxChamber; i++ {
		req.chambers = append(req.chambers, numberedChamber{number: i + 1, data: variant.Chambers[i]})
	}
	if len(req.chambers) == 0 {
		return nil, noData
	}
	return req, nil
}

// Draw renders the quick view for q. A missing floor, chamber, or period yields a
// *NoDataError wrapping ErrNoData.
func (d *Drawer) Draw(ctx context.Context, ds *hhw.Dataset, q query.Query) (*image.RGBA, error) {
	req, err := resolve(ds, q)
	if err != nil {
		return nil, err
	}
	timer := logging.StartTimer(logging.CategoryRender, fmt.Sprintf("quick view %s (%s)", q, req.mode))
	defer timer.Stop()

	var header *image.RGBA
	chambers := make([]*image.RGBA, len(req.chambers))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		img, err := d.header(req)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		header = img
		return nil
	})
	for i, ch := range req.chambers {
		eg.Go(func() error {
			img, err := d.chamber(egCtx, req.floor, ch)
			if err != nil {
				return fmt.Errorf("chamber %d-%d: %w", req.floor, ch.number, err)
			}
			chambers[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return Compose(req.mode, header, chambers), nil
}

// Render draws the quick view and encodes it as JPEG.
func (d *Drawer) Render(ctx context.Context, ds *hhw.Dataset, q query.Query, quality int) ([]byte, error) {
	img, err := d.Draw(ctx, ds, q)
	if err != nil {
		return nil, err
	}
	return render.EncodeJPEG(img, quality)
}

// Compose stacks the header above the chambers. Vertical pictures hold one chamber;
// horizontal ones place chamber i at x = i*Width.
func Compose(mode Mode, header *image.RGBA, chambers []*image.RGBA) *image.RGBA {
	hh := header.Bounds().Dy()
	if mode == Vertical {
		h := hh
		if len(chambers) > 0 {
			h += chambers[0].Bounds().Dy()
		}
		out := render.NewCanvas(Width, h, render.BgColor)
		render.Paste(out, header, image.Point{})
		if len(chambers) > 0 {
			render.Paste(out, chambers[0], image.Pt(0, hh))
		}
		return out
	}

	maxH := 0
	for _, ch := range chambers {
		maxH = max(maxH, ch.Bounds().Dy())
	}
	out := render.NewCanvas(Width*query.MaxChamber, hh+maxH, render.BgColor)
	render.Paste(out, header, image.Point{})
	for i, ch := range chambers {
		render.Paste(out, ch, image.Pt(i*Width, hh))
	}
	return out
}
