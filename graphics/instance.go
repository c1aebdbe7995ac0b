package graphics

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v2/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v2"
)

// The standard validation bundle that ships with the LunarG Vulkan SDK.
var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func (app *App) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    "2D Shooter",
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	// The window system integration extensions come from SDL; core
	// Vulkan has no knowledge of concrete windowing systems.
	sdlExtensions := app.window.VulkanGetInstanceExtensions()
	extensions, _, err := app.loader.AvailableExtensions()
	if err != nil {
		return err
	}

	instanceOptions.EnabledExtensionNames, err = requiredInstanceExtensions(sdlExtensions, extensions, app.config.EnableValidation)
	if err != nil {
		return err
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if app.config.EnableValidation {
		layers, _, err := app.loader.AvailableLayers()
		if err != nil {
			return err
		}

		missing := missingLayers(layers, validationLayers)
		if len(missing) > 0 {
			return errors.Errorf("createInstance: validation layer %s is not available (is the LunarG Vulkan SDK installed?)", missing[0])
		}
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayers...)

		// Chaining the messenger create info here makes the callback
		// cover instance creation and destruction as well.
		instanceOptions.Next = app.debugMessengerOptions()
	}

	app.instance, _, err = app.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return err
	}

	return nil
}

// requiredInstanceExtensions verifies that every window-system
// extension is available and appends the debug utils extension when
// validation is enabled.
func requiredInstanceExtensions(windowExtensions []string, available map[string]*core1_0.ExtensionProperties, validation bool) ([]string, error) {
	var required []string
	for _, ext := range windowExtensions {
		_, hasExt := available[ext]
		if !hasExt {
			return nil, errors.Errorf("createInstance: cannot initialize sdl: missing extension %s", ext)
		}
		required = append(required, ext)
	}

	if validation {
		required = append(required, ext_debug_utils.ExtensionName)
	}

	return required, nil
}

// missingLayers returns the required layers absent from the available
// layer set.
func missingLayers(available map[string]*core1_0.LayerProperties, required []string) []string {
	var missing []string
	for _, layer := range required {
		_, hasLayer := available[layer]
		if !hasLayer {
			missing = append(missing, layer)
		}
	}
	return missing
}

func (app *App) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityVerbose | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityError,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    app.logDebug,
	}
}

func (app *App) setupDebugMessenger() error {
	if !app.config.EnableValidation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(app.instance)
	app.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(app.instance, nil, app.debugMessengerOptions())
	if err != nil {
		return err
	}

	return nil
}

func (app *App) createSurface() error {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(app.instance)

	surface, err := vkng_sdl2.CreateSurface(app.instance, surfaceLoader, app.window)
	if err != nil {
		return err
	}

	app.surface = surface
	return nil
}

// logDebug routes validation layer messages into the package logger.
// Returning true would tell the driver to abort the triggering call;
// that is only useful for testing the layers themselves.
func (app *App) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	Logger().Log(context.Background(), debugSeverityLevel(severity), data.Message, "type", msgType)
	return false
}

// debugSeverityLevel maps debug utils severities onto slog levels.
func debugSeverityLevel(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) slog.Level {
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		return slog.LevelError
	case severity&ext_debug_utils.SeverityWarning != 0:
		return slog.LevelWarn
	case severity&ext_debug_utils.SeverityInfo != 0:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
