package panel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/state"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// Identities the panel claims regions under.
const (
	OwnerWelcome   = "welcome"
	OwnerTrack     = "track"
	OwnerBluetooth = "bluetooth"
	OwnerPairing   = "pairing"
)

const (
	WelcomePriority      = 1
	BluetoothPriority    = 1
	PairingPriority      = 2
	TrackPriority        = 3
	DefaultFlashPriority = 5
)

var DefaultGreetings = []string{"Howdy Jim", "Hey handsome", "Hello Jim", "Welcome Jim"}

type Options struct {
	Greetings       []string
	WelcomeDuration time.Duration
	// FlashWait bounds how long timed messages wait for their region.
	FlashWait      time.Duration
	ScrollSpeed    float64
	BluetoothGlyph image.Image
	// Intn picks the greeting; defaults to math/rand.
	Intn func(n int) int
}

func DefaultOptions() Options {
	return Options{
		Greetings:       DefaultGreetings,
		WelcomeDuration: 3 * time.Second,
		FlashWait:       time.Second,
		ScrollSpeed:     region.DefaultMarqueeSpeed,
	}
}

// Panel turns player facts into region claims and draws. It is safe for
// concurrent use; timed operations block for their duration.
type Panel struct {
	Logger Logger

	tree *region.Tree
	opts Options

	display   *region.Region
	bluetooth *region.Region
	title     *region.Region
	main      *region.Region
	artist    *region.Region
	elapsed   *region.Region
	progress  *region.Region
	remaining *region.Region

	mu          sync.Mutex
	track       state.Track
	showTrack   bool
	btConnected bool

	flashSeq atomic.Uint64
}

// New resolves the regions the panel draws into. A tree without them is a
// wiring error reported as region.ErrRegionNotFound.
func New(tree *region.Tree, opts Options) (*Panel, error) {
	if len(opts.Greetings) == 0 {
		opts.Greetings = DefaultGreetings
	}
	if opts.Intn == nil {
		opts.Intn = rand.Intn
	}
	p := &Panel{tree: tree, opts: opts}
	for name, dst := range map[string]**region.Region{
		region.Display:     &p.display,
		region.Bluetooth:   &p.bluetooth,
		region.Title:       &p.title,
		region.Main:        &p.main,
		region.ArtistAlbum: &p.artist,
		region.Elapsed:     &p.elapsed,
		region.Progress:    &p.progress,
		region.Remaining:   &p.remaining,
	} {
		r, err := tree.Region(name)
		if err != nil {
			return nil, err
		}
		*dst = r
	}
	return p, nil
}

func (p *Panel) Tree() *region.Tree { return p.tree }

// Snapshot reports every region's ownership and content.
func (p *Panel) Snapshot() []region.State { return p.tree.Snapshot() }

func (p *Panel) logger() Logger {
	if p.Logger == nil {
		return noopLogger{}
	}
	return p.Logger
}

// Welcome shows a greeting across the whole display for the configured
// duration and then releases it.
func (p *Panel) Welcome(ctx context.Context) error {
	greeting := p.opts.Greetings[p.opts.Intn(len(p.opts.Greetings))]
	req := region.Request{Owner: OwnerWelcome, Priority: WelcomePriority}
	ok, err := p.display.RenderMarquee(ctx, req, greeting, p.opts.ScrollSpeed)
	if !ok {
		return err
	}
	p.logger().Infof("panel", "welcome: %q", greeting)
	return p.hold(ctx, p.display, OwnerWelcome, p.opts.WelcomeDuration, err)
}

// FlashMessage shows text in target at priority for duration, then
// releases target if the message still owns it. It reports whether the
// message was shown; a message that could not claim target is dropped.
func (p *Panel) FlashMessage(ctx context.Context, text string, priority int, duration time.Duration, target string) (bool, error) {
	if target == "" {
		target = region.Main
	}
	r, err := p.tree.Region(target)
	if err != nil {
		return false, err
	}
	id := fmt.Sprintf("flash-%d", p.flashSeq.Add(1))
	req := region.Request{Owner: id, Priority: priority, MaxWait: p.opts.FlashWait}
	ok, err := r.RenderMarquee(ctx, req, text, p.opts.ScrollSpeed)
	if !ok {
		p.logger().Infof("panel", "flash %q dropped at priority %d", text, priority)
		return false, err
	}
	return true, p.hold(ctx, r, id, duration, err)
}

// ShowPairing draws a QR code of payload next to a short caption in the
// main area while the adapter is discoverable.
func (p *Panel) ShowPairing(ctx context.Context, payload string, duration time.Duration) (bool, error) {
	rect := p.main.Rect()
	qr, err := render.GenerateQRCode(payload, rect.Dy())
	if err != nil {
		return false, fmt.Errorf("pairing qr: %w", err)
	}
	if qr == nil {
		return false, errors.New("pairing qr: empty payload")
	}
	req := region.Request{Owner: OwnerPairing, Priority: PairingPriority, MaxWait: p.opts.FlashWait}
	ok, err := p.main.Render(ctx, req, pairingCaption, func(s *render.Surface, rect image.Rectangle) {
		drawPairing(s, rect, qr)
	})
	if !ok {
		return false, err
	}
	return true, p.hold(ctx, p.main, OwnerPairing, duration, err)
}

// hold keeps r for d, releases it if owner still has it and puts back
// whatever the release may have wiped.
func (p *Panel) hold(ctx context.Context, r *region.Region, owner string, d time.Duration, drawErr error) error {
	if drawErr == nil {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
	_, relErr := r.ReleaseIfOwner(owner)
	if ctx.Err() != nil {
		return errors.Join(drawErr, relErr)
	}
	return errors.Join(drawErr, relErr, p.restore(context.WithoutCancel(ctx)))
}

// restore redraws the bluetooth glyph and the current track where a
// release left their regions empty.
func (p *Panel) restore(ctx context.Context) error {
	p.mu.Lock()
	bt, show, track := p.btConnected, p.showTrack, p.track
	p.mu.Unlock()

	var errs []error
	if bt && !p.bluetooth.OwnedBy(OwnerBluetooth) {
		errs = append(errs, p.drawBluetooth(ctx))
	}
	if show {
		errs = append(errs, p.renderTrack(ctx, track, false))
	}
	return errors.Join(errs...)
}

// SetBluetooth shows or clears the connection glyph. The bluetooth region
// is exclusive, so this never contends with other updates.
func (p *Panel) SetBluetooth(ctx context.Context, connected bool) error {
	p.mu.Lock()
	p.btConnected = connected
	p.mu.Unlock()
	if !connected {
		return p.bluetooth.Release()
	}
	return p.drawBluetooth(ctx)
}

func (p *Panel) drawBluetooth(ctx context.Context) error {
	req := region.Request{Owner: OwnerBluetooth, Priority: BluetoothPriority}
	if p.opts.BluetoothGlyph == nil {
		_, err := p.bluetooth.RenderStatic(ctx, req, "B")
		return err
	}
	_, err := p.bluetooth.RenderImage(ctx, req, p.opts.BluetoothGlyph)
	return err
}

// UpdateTrack remembers track and draws it under the "track" identity.
// Regions held by a higher-priority message are skipped, not queued.
func (p *Panel) UpdateTrack(ctx context.Context, track state.Track) error {
	p.mu.Lock()
	p.track = track
	p.showTrack = true
	p.mu.Unlock()
	return p.renderTrack(ctx, track, true)
}

// ShowTrack draws the remembered track again, e.g. when playback resumes.
func (p *Panel) ShowTrack(ctx context.Context) error {
	p.mu.Lock()
	track := p.track
	p.showTrack = true
	p.mu.Unlock()
	return p.renderTrack(ctx, track, true)
}

// Track returns the remembered track.
func (p *Panel) Track() state.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// renderTrack draws the title and, when the track has anything for it,
// the main area. Without force, regions already showing the track are
// left alone so running marquees keep their place.
func (p *Panel) renderTrack(ctx context.Context, track state.Track, force bool) error {
	req := region.Request{Owner: OwnerTrack, Priority: TrackPriority}
	var errs []error

	if track.Title != "" {
		if force || !p.title.OwnedBy(OwnerTrack) {
			_, err := p.title.RenderMarquee(ctx, req, track.Title, p.opts.ScrollSpeed)
			errs = append(errs, err)
		}
	} else {
		_, err := p.title.ReleaseIfOwner(OwnerTrack)
		errs = append(errs, err)
	}

	line := track.ArtistAlbum()
	if line == "" && track.Duration <= 0 {
		_, err := p.main.ReleaseIfOwner(OwnerTrack)
		return errors.Join(append(errs, err)...)
	}
	if !force && p.main.OwnedBy(OwnerTrack) {
		return errors.Join(errs...)
	}
	if !p.main.Claim(ctx, OwnerTrack, TrackPriority, 0) {
		p.logger().Infof("panel", "main area busy, track line skipped")
		return errors.Join(errs...)
	}
	if line != "" {
		_, err := p.artist.RenderMarquee(ctx, req, line, p.opts.ScrollSpeed)
		errs = append(errs, err)
	} else {
		_, err := p.artist.ReleaseIfOwner(OwnerTrack)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UpdatePosition draws elapsed time, progress and remaining time. It only
// draws while the main area belongs to the track; an unknown total skips
// the bar and the remaining time.
func (p *Panel) UpdatePosition(ctx context.Context, elapsed, total time.Duration) error {
	if !p.main.OwnedBy(OwnerTrack) {
		return nil
	}
	req := region.Request{Owner: OwnerTrack, Priority: TrackPriority}
	if elapsed < 0 {
		elapsed = 0
	}
	var errs []error
	_, err := p.elapsed.RenderStatic(ctx, req, p.clockText(p.elapsed, "", elapsed))
	errs = append(errs, err)
	if total > 0 {
		left := total - elapsed
		if left < 0 {
			left = 0
		}
		_, err = p.progress.RenderProgress(ctx, req, elapsed, total)
		errs = append(errs, err)
		_, err = p.remaining.RenderStatic(ctx, req, p.clockText(p.remaining, "-", left))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ClearTrack releases the main area and the title if the track still
// holds them. Content owned by anyone else is untouched.
func (p *Panel) ClearTrack(ctx context.Context) error {
	p.mu.Lock()
	p.showTrack = false
	p.mu.Unlock()
	_, mainErr := p.main.ReleaseIfOwner(OwnerTrack)
	_, titleErr := p.title.ReleaseIfOwner(OwnerTrack)
	return errors.Join(mainErr, titleErr)
}

// clockText formats d for r, falling back to total minutes when h:mm:ss
// is wider than the region.
func (p *Panel) clockText(r *region.Region, prefix string, d time.Duration) string {
	text := prefix + FormatClock(d)
	if p.tree.Surface().MeasureText(text) <= r.Rect().Dx() {
		return text
	}
	return prefix + FormatMinutes(d)
}

// FormatMinutes renders d as m:ss with the minutes running past 59.
func FormatMinutes(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatClock renders d as m:ss, or h:mm:ss from one hour.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, (secs/60)%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
