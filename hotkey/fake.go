package hotkey

type FakeHotkey struct {
	actions    chan Action
	registered bool
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{actions: make(chan Action, 8)}
}

func (f *FakeHotkey) Register() error        { f.registered = true; return nil }
func (f *FakeHotkey) Unregister()            { f.registered = false }
func (f *FakeHotkey) Actions() <-chan Action { return f.actions }

func (f *FakeHotkey) Press(a Action) { f.actions <- a }
