package graphics

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

func (app *App) createSwapchain() error {
	app.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(app.device)

	// Query surface support fresh rather than reusing the selection
	// snapshot; the capabilities change when the window is resized.
	capabilities, _, err := app.surface.PhysicalDeviceSurfaceCapabilities(app.physicalDevice)
	if err != nil {
		return err
	}

	formats, _, err := app.surface.PhysicalDeviceSurfaceFormats(app.physicalDevice)
	if err != nil {
		return err
	}

	presentModes, _, err := app.surface.PhysicalDeviceSurfacePresentModes(app.physicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat := chooseSwapSurfaceFormat(formats)
	presentMode := chooseSwapPresentMode(presentModes)

	drawableWidth, drawableHeight := app.window.VulkanGetDrawableSize()
	extent := chooseSwapExtent(capabilities, int(drawableWidth), int(drawableHeight))
	imageCount := chooseImageCount(capabilities)

	// Images rendered on one queue family and presented on another need
	// concurrent sharing; the common single-family case keeps the
	// cheaper exclusive mode.
	indices := app.physicalDeviceCaps.Indices
	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if *indices.GraphicsFamily != *indices.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *indices.GraphicsFamily, *indices.PresentFamily)
	}

	swapchain, _, err := app.swapchainExtension.CreateSwapchain(app.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: app.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}

	app.swapchain = swapchain
	app.swapchainExtent = extent
	app.swapchainImageFormat = surfaceFormat.Format

	Logger().Debug("swapchain created",
		"format", surfaceFormat.Format,
		"presentMode", presentMode,
		"width", extent.Width,
		"height", extent.Height,
		"minImageCount", imageCount,
	)

	return nil
}

func (app *App) createImageViews() error {
	images, _, err := app.swapchain.SwapchainImages()
	if err != nil {
		return err
	}
	app.swapchainImages = images

	var imageViews []core1_0.ImageView
	for _, image := range images {
		view, _, err := app.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			ViewType: core1_0.ImageViewType2D,
			Image:    image,
			Format:   app.swapchainImageFormat,
			Components: core1_0.ComponentMapping{
				R: core1_0.ComponentSwizzleIdentity,
				G: core1_0.ComponentSwizzleIdentity,
				B: core1_0.ComponentSwizzleIdentity,
				A: core1_0.ComponentSwizzleIdentity,
			},
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return err
		}

		imageViews = append(imageViews, view)
	}
	app.swapchainImageViews = imageViews

	return nil
}

// chooseSwapSurfaceFormat prefers B8G8R8A8 SRGB with the SRGB nonlinear
// colorspace and otherwise takes whatever the driver listed first.
func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

// chooseSwapPresentMode prefers mailbox, which behaves like triple
// buffering. FIFO is the only mode the driver must support.
func chooseSwapPresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// chooseSwapExtent resolves the swapchain image resolution in pixels.
// A current extent width of -1 means the surface lets the swapchain
// decide, in which case the drawable size is clamped to the supported
// range.
func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(drawableWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(drawableHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// chooseImageCount requests one image more than the driver minimum so
// acquiring the next image does not wait on internal driver work,
// capped at the supported maximum. A maximum of zero means unbounded.
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}
