// Package graphics bootstraps the game window and the Vulkan context:
// window and surface creation, instance creation with optional
// validation, physical device selection, logical device and queue
// creation, and the swapchain. There is no rendering here; the package
// brings the graphics stack up, runs the window event loop, and tears
// everything down again.
package graphics

import (
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v2"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// App owns every native handle created during graphics bring-up. The
// handles are created in a fixed order by initWindow and initVulkan,
// held unchanged for the lifetime of the process, and released in
// reverse order by cleanup.
type App struct {
	config Config

	window *sdl.Window
	loader core.Loader

	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice     core1_0.PhysicalDevice
	physicalDeviceCaps *PhysicalDeviceCaps
	device             core1_0.Device

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension   khr_swapchain.Extension
	swapchain            khr_swapchain.Swapchain
	swapchainImages      []core1_0.Image
	swapchainImageFormat core1_0.Format
	swapchainExtent      core1_0.Extent2D
	swapchainImageViews  []core1_0.ImageView
}

func NewApp(config Config) *App {
	return &App{config: config}
}

// Run brings the graphics stack up, blocks on the window event loop
// until the window is closed, and releases all native handles. The
// caller must have locked the OS thread.
func (app *App) Run() error {
	defer app.cleanup()

	err := app.initWindow()
	if err != nil {
		return err
	}

	start := hrtime.Now()
	err = app.initVulkan()
	if err != nil {
		return err
	}
	Logger().Info("vulkan initialized", "elapsed", hrtime.Now()-start)

	return app.mainLoop()
}

func (app *App) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "failed to initialize SDL")
	}

	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN)
	if app.config.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}

	window, err := sdl.CreateWindow(
		app.config.WindowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(app.config.Width), int32(app.config.Height),
		flags)
	if err != nil {
		return errors.Wrap(err, "failed to create window")
	}
	app.window = window

	app.loader, err = core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "failed to load the Vulkan library")
	}

	return nil
}

func (app *App) initVulkan() error {
	err := app.createInstance()
	if err != nil {
		return err
	}

	err = app.setupDebugMessenger()
	if err != nil {
		return err
	}

	err = app.createSurface()
	if err != nil {
		return err
	}

	err = app.pickPhysicalDevice()
	if err != nil {
		return err
	}

	err = app.createLogicalDevice()
	if err != nil {
		return err
	}

	err = app.createSwapchain()
	if err != nil {
		return err
	}

	return app.createImageViews()
}

// mainLoop polls window events until a quit request. There is no frame
// to draw yet, so the loop sleeps between polls instead of spinning.
func (app *App) mainLoop() error {
appLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_RESIZED && app.config.Resizable {
					err := app.recreateSwapchain()
					if err != nil {
						return err
					}
				}
			}
		}
		sdl.Delay(16)
	}

	_, err := app.device.WaitIdle()
	return err
}

func (app *App) recreateSwapchain() error {
	w, h := app.window.VulkanGetDrawableSize()
	if w == 0 || h == 0 {
		return nil
	}
	if (app.window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return nil
	}

	_, err := app.device.WaitIdle()
	if err != nil {
		return err
	}

	app.cleanupSwapchain()

	err = app.createSwapchain()
	if err != nil {
		return err
	}

	return app.createImageViews()
}

func (app *App) cleanupSwapchain() {
	for _, imageView := range app.swapchainImageViews {
		imageView.Destroy(nil)
	}
	app.swapchainImageViews = nil
	app.swapchainImages = nil

	if app.swapchain != nil {
		app.swapchain.Destroy(nil)
		app.swapchain = nil
	}
}

// cleanup releases every handle created so far, strictly in reverse
// creation order. Each teardown is nil-guarded so a failure partway
// through bring-up releases exactly what exists.
func (app *App) cleanup() {
	app.cleanupSwapchain()

	if app.device != nil {
		app.device.Destroy(nil)
		app.device = nil
	}

	// The messenger must go before the instance it is attached to.
	if app.debugMessenger != nil {
		app.debugMessenger.Destroy(nil)
		app.debugMessenger = nil
	}

	if app.surface != nil {
		app.surface.Destroy(nil)
		app.surface = nil
	}

	if app.instance != nil {
		app.instance.Destroy(nil)
		app.instance = nil
	}

	if app.window != nil {
		app.window.Destroy()
		app.window = nil
	}
	sdl.Quit()
}
