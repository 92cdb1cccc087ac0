package chrome

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"pdf-service/internal/domain"
	"pdf-service/internal/infra/logging"
)

// cdproto omits zero-valued margins, which makes Chrome apply its own 0.4in
// default. Zero is therefore sent as this negligible value.
const minMarginInches = 1e-4

// PrintToPDF renders html in a new page and returns the PDF bytes. Each call
// gets its own browser context, which is disposed together with the page on
// every exit path.
func (b *Browser) PrintToPDF(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
	params, err := printParams(opts)
	if err != nil {
		return nil, err
	}

	s, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}

	tabCtx, closeTab := chromedp.NewContext(s.ctx, chromedp.WithNewBrowserContext())
	defer closeTab()

	b.openPages.Add(1)
	enginePagesOpen.Inc()
	defer func() {
		b.openPages.Add(-1)
		enginePagesOpen.Dec()
	}()

	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()
	if t := b.cfg.Chrome.RenderTimeout; t > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, t)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	pdf, err := renderInTab(runCtx, html, params, b.cfg.Chrome.NetworkIdle)
	if err != nil {
		if s.ctx.Err() != nil || IsSessionInterrupted(err) {
			logging.Warn("Chrome session interrupted; dropping browser handle", "error", err)
			b.discard(s)
		}
		return nil, err
	}
	return pdf, nil
}

// renderInTab loads html into the tab behind ctx, waits for the network to go
// quiet and prints the page.
func renderInTab(ctx context.Context, html string, params *page.PrintToPDFParams, quiet time.Duration) ([]byte, error) {
	tracker := newNetworkTracker()
	chromedp.ListenTarget(ctx, tracker.handle)

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			if err := page.SetDocumentContent(frame.Frame.ID, html).Do(ctx); err != nil {
				return err
			}
			tracker.reset()
			return nil
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return tracker.wait(ctx, quiet)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

// printParams maps render options onto Chrome's Page.printToPDF parameters.
func printParams(opts domain.RenderOptions) (*page.PrintToPDFParams, error) {
	size, err := opts.Format.Size()
	if err != nil {
		return nil, err
	}
	m, err := opts.Margin.Inches()
	if err != nil {
		return nil, err
	}

	return page.PrintToPDF().
		WithPrintBackground(opts.PrintBackground).
		WithPaperWidth(size.Width).
		WithPaperHeight(size.Height).
		WithMarginTop(nonZero(m.Top)).
		WithMarginRight(nonZero(m.Right)).
		WithMarginBottom(nonZero(m.Bottom)).
		WithMarginLeft(nonZero(m.Left)), nil
}

func nonZero(v float64) float64 {
	if v == 0 {
		return minMarginInches
	}
	return v
}
