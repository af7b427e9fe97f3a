package lifecycle

import (
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// Kind classifies a resource handle by its expected release shape.
type Kind string

const (
	KindTimer       Kind = "timer"
	KindSignal      Kind = "signal"
	KindSubprocess  Kind = "subprocess"
	KindDBusExport  Kind = "dbus-export"
	KindDBusName    Kind = "dbus-name"
	KindWidget      Kind = "widget"
	KindFileMonitor Kind = "filemonitor"
	KindKeybinding  Kind = "keybinding"
	KindInjection   Kind = "injection"
	KindSoupSession Kind = "soup-session"
	KindDBusProxy   Kind = "dbus-proxy"
	KindSettings    Kind = "settings"
	KindAsync       Kind = "async"
)

// Role is the lifecycle role of a method.
type Role string

const (
	RoleActivation       Role = "activation"
	RoleDeactivation     Role = "deactivation"
	RoleConstruction     Role = "construction"
	RolePrefs            Role = "prefs"
	RoleHelperActivation Role = "helper-activation"
	RoleHelperRelease    Role = "helper-release"
)

// Exemption reasons.
const (
	ExemptOneShot = "one-shot timer"
	ExemptChild   = "added to a parent actor"
	ExemptPassed  = "passed to another call"
	ExemptLocal   = "local value"
	ExemptSelf    = "connected on the object itself"
	ExemptAwaited = "awaited local promise"
)

// Site is a source position inside a class method.
type Site struct {
	File   string
	Line   int
	Class  string
	Method string
}

// Method is a lifecycle method of a tracked class.
type Method struct {
	File  string
	Class string
	Name  string
	Role  Role
	Node  *source.Node
}

// Handle is a tracked acquired resource.
type Handle struct {
	Kind    Kind
	Acquire Site
	Callee  string
	// Symbol is where the handle is stored ("this._id", "this._ids[]"),
	// empty when the return value is discarded.
	Symbol string
	// Receiver is the object a signal handler is connected on.
	Receiver string
	// Key identifies keybindings by name.
	Key string
	// Owner is the class that acquired the handle.
	Owner string

	Release  *Site
	Released bool
	// Attributed is set when the owning class is itself released by its
	// owner, transitively up to the extension class.
	Attributed bool
	Exempt     string

	// Repeatable marks acquisitions that run more than once per
	// activation: inside callbacks or in methods only reached from one.
	Repeatable bool
	// Reassigned marks a repeatable acquisition that overwrites its
	// field without removing the previous source first.
	Reassigned bool

	ConnectObject bool
	Async         bool
	GuardMissing  bool

	Call *source.Call
}

// Leaked reports whether the handle needs a release it does not have. A
// release inside a helper only counts once the helper itself is released
// from the extension class.
func (h *Handle) Leaked() bool {
	return h.Exempt == "" && !(h.Released && h.Attributed)
}

// Collection is the array a handle was pushed into, or "".
func (h *Handle) Collection() string {
	if n := len(h.Symbol); n > 2 && h.Symbol[n-2:] == "[]" {
		return h.Symbol[:n-2]
	}
	return ""
}

// Edge reasons.
const (
	ReasonUnresolvedImport = "unresolved-import"
	ReasonNoRelease        = "no-release-method"
)

// OwnershipEdge ties a helper instance stored in an owner field back to
// the owner.
type OwnershipEdge struct {
	Owner     string
	OwnerFile string
	Field     string
	Helper    string
	// HelperFile is empty when the helper could not be resolved.
	HelperFile string
	Site       Site
	Resolved   bool
	Reason     string
	// ReleaseMethod is the helper method that must be called.
	ReleaseMethod string
	ReleaseCalled bool
	// Handles counts the helper's own tracked handles.
	Handles int
}

// Ambiguity records a call that matched shapes of several kinds. The
// most specific shape wins.
type Ambiguity struct {
	Site   Site
	Callee string
	Kinds  []Kind
	Chosen Kind
}

// Graph is the lifecycle model of one extension unit.
type Graph struct {
	// Extension is the default-exported class of the entry module.
	Extension *source.Class
	Methods   []Method
	Handles   []*Handle
	Edges     []*OwnershipEdge
	// Flags are fields assigned in a deactivation or helper release
	// method, used as is-active guards.
	Flags       map[string]bool
	Ambiguities []Ambiguity
}

// HandlesOf returns handles of the given kinds.
func (g *Graph) HandlesOf(kinds ...Kind) []*Handle {
	var out []*Handle
	for _, h := range g.Handles {
		for _, k := range kinds {
			if h.Kind == k {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

// MethodsWithRole returns the tracked methods with the given role.
func (g *Graph) MethodsWithRole(role Role) []Method {
	var out []Method
	for _, m := range g.Methods {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}
