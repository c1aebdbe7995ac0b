package graphics

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Defaults for the game window. Resizing is off by default; handling
// resized windows takes special care with the swapchain.
const (
	DefaultWindowTitle = "Two Dee Shooter"
	DefaultWidth       = 800
	DefaultHeight      = 600
)

// Config controls the graphics bring-up.
type Config struct {
	WindowTitle string
	Width       int
	Height      int

	// EnableValidation loads VK_LAYER_KHRONOS_validation and installs a
	// debug messenger. The layer ships with the LunarG Vulkan SDK.
	EnableValidation bool

	// Resizable makes the window resizable and recreates the swapchain
	// on resize events.
	Resizable bool

	// Verbose requests debug-level log output from the entry point.
	Verbose bool
}

func DefaultConfig() Config {
	return Config{
		WindowTitle:      DefaultWindowTitle,
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		EnableValidation: true,
	}
}

// ParseArgs applies command line arguments on top of DefaultConfig.
func ParseArgs(args []string) (Config, error) {
	config := DefaultConfig()

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--width", "--height":
			if i+1 >= len(args) {
				return config, errors.Errorf("%s requires a value", arg)
			}
			i++
			value, err := strconv.Atoi(args[i])
			if err != nil || value <= 0 {
				return config, errors.Errorf("%s requires a positive integer, got %q", arg, args[i])
			}
			if arg == "--width" {
				config.Width = value
			} else {
				config.Height = value
			}
		case "--no-validation":
			config.EnableValidation = false
		case "--resizable":
			config.Resizable = true
		case "--verbose":
			config.Verbose = true
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			return config, errors.Errorf("unrecognized option: %s", arg)
		}
	}

	return config, nil
}

func printUsage() {
	fmt.Println("\nOptions")
	fmt.Println("\t--width <pixels>")
	fmt.Println("\t\tWindow width (default 800)")
	fmt.Println("\t--height <pixels>")
	fmt.Println("\t\tWindow height (default 600)")
	fmt.Println("\t--no-validation")
	fmt.Println("\t\tDisable the Khronos validation layer and debug messenger")
	fmt.Println("\t--resizable")
	fmt.Println("\t\tMake the window resizable")
	fmt.Println("\t--verbose")
	fmt.Println("\t\tLog debug output, including per-device capability reports")
}
