package interaction

// Viewer connects a Controller to a Presenter: every event is handled, and
// its redraw class decides whether a new base frame is rendered or only the
// overlay is redrawn.
type Viewer struct {
	strategy  Strategy
	ctrl      *Controller
	presenter *Presenter
}

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	Controller ControllerOptions
	Presenter  PresenterOptions
}

// NewViewer returns a Viewer presenting strategy's content to sink.
func NewViewer(strategy Strategy, sink FrameSink, opts ViewerOptions) *Viewer {
	v := &Viewer{
		strategy:  strategy,
		ctrl:      NewController(strategy, opts.Controller),
		presenter: NewPresenter(sink, opts.Presenter),
	}
	v.ctrl.OnRedraw(v.Refresh)
	return v
}

// Controller returns the viewer's controller.
func (v *Viewer) Controller() *Controller { return v.ctrl }

// Presenter returns the viewer's presenter.
func (v *Viewer) Presenter() *Presenter { return v.presenter }

// Start presents the first frame.
func (v *Viewer) Start() {
	v.Refresh(RedrawBase)
}

// Dispatch handles ev and schedules the redraw it requires.
func (v *Viewer) Dispatch(ev Event) RedrawClass {
	cls := v.ctrl.Handle(ev)
	v.Refresh(cls)
	return cls
}

// Refresh schedules a redraw of the given class. Call it after changing
// the content outside of Dispatch, for example after loading a new case.
func (v *Viewer) Refresh(cls RedrawClass) {
	switch cls {
	case RedrawBase:
		v.presenter.Submit(v.strategy.BaseImage(), v.ctrl.Overlay())
	case RedrawOverlay:
		v.presenter.Submit(nil, v.ctrl.Overlay())
	}
}

// Wait blocks until pending frames are presented.
func (v *Viewer) Wait() { v.presenter.Wait() }

// Close cancels pending timers and waits for pending frames.
func (v *Viewer) Close() {
	v.ctrl.Close()
	v.presenter.Wait()
}
