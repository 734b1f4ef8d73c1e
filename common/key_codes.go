package common

// Virtual key codes for viewer input.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87  // W key (ASCII)
	KeyA     = 65  // A key (ASCII)
	KeyS     = 83  // S key (ASCII)
	KeyD     = 68  // D key (ASCII)
	KeyQ     = 81  // Q key (ASCII)
	KeyE     = 69  // E key (ASCII)
	KeyM     = 77  // M key (ASCII): cycle animation mode
	KeyP     = 80  // P key (ASCII): pause lifecycle
	KeyR     = 82  // R key (ASCII): reset lifecycle and transition
	KeyT     = 84  // T key (ASCII): toggle transition overlay
	KeySpace = 32  // Spacebar (ASCII): toggle base shape
	KeyEsc   = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key (ASCII): triangle shape
	Key2 = 50 // 2 key (ASCII): sphere shape
)
