package graphics

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

// Presenting images to the screen requires the swapchain device
// extension; not every device that can render can present.
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// QueueFamilyIndices holds the queue families the logical device needs.
// The graphics and present families usually coincide, but the driver
// makes no such guarantee.
type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// findQueueFamilyIndices scans the queue family list for graphics and
// presentation support, keeping the first family found for each.
// supportsPresent reports presentation support for a family index,
// normally against the window surface.
func findQueueFamilyIndices(families []*core1_0.QueueFamilyProperties, supportsPresent func(index int) (bool, error)) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for familyIdx, family := range families {
		if indices.GraphicsFamily == nil && (family.QueueFlags&core1_0.QueueGraphics) != 0 {
			gfxIdx := familyIdx
			indices.GraphicsFamily = &gfxIdx
		}

		if indices.PresentFamily == nil {
			supported, err := supportsPresent(familyIdx)
			if err != nil {
				return indices, err
			}
			if supported {
				presentIdx := familyIdx
				indices.PresentFamily = &presentIdx
			}
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

// PhysicalDeviceCaps is a snapshot of everything device selection cares
// about for one physical device.
type PhysicalDeviceCaps struct {
	Properties *core1_0.PhysicalDeviceProperties
	Features   *core1_0.PhysicalDeviceFeatures

	Indices    QueueFamilyIndices
	Extensions map[string]*core1_0.ExtensionProperties

	SurfaceCaps         *khr_surface.SurfaceCapabilities
	SurfaceFormats      []khr_surface.SurfaceFormat
	SurfacePresentModes []khr_surface.PresentMode
}

// Suitability scores the device, zero meaning unusable. The hard
// requirements are the geometry shader feature, graphics and present
// queue families, the swapchain extension, and at least one surface
// format and present mode. Above that, discrete GPUs win over
// integrated ones, with maximum image resolution as the tie breaker.
func (c *PhysicalDeviceCaps) Suitability() int {
	if !c.Features.GeometryShader {
		return 0
	}
	if !c.Indices.IsComplete() {
		return 0
	}
	if !hasAllExtensions(c.Extensions, deviceExtensions) {
		return 0
	}
	if len(c.SurfaceFormats) == 0 || len(c.SurfacePresentModes) == 0 {
		return 0
	}

	score := c.Properties.Limits.MaxImageDimension2D
	if c.Properties.DriverType == core1_0.PhysicalDeviceTypeDiscreteGPU {
		score += 1000
	}

	return score
}

// hasAllExtensions reports whether every required extension appears in
// the available extension set.
func hasAllExtensions(available map[string]*core1_0.ExtensionProperties, required []string) bool {
	for _, extension := range required {
		_, hasExtension := available[extension]
		if !hasExtension {
			return false
		}
	}
	return true
}

func (app *App) queryPhysicalDeviceCaps(device core1_0.PhysicalDevice) (*PhysicalDeviceCaps, error) {
	caps := &PhysicalDeviceCaps{}

	properties, err := device.Properties()
	if err != nil {
		return nil, err
	}
	caps.Properties = properties
	caps.Features = device.Features()

	caps.Extensions, _, err = device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, err
	}

	caps.Indices, err = findQueueFamilyIndices(device.QueueFamilyProperties(), func(index int) (bool, error) {
		supported, _, err := app.surface.PhysicalDeviceSurfaceSupport(device, index)
		return supported, err
	})
	if err != nil {
		return nil, err
	}

	// Surface queries are only legal once we know the device can
	// actually drive a swapchain.
	if hasAllExtensions(caps.Extensions, deviceExtensions) {
		caps.SurfaceCaps, _, err = app.surface.PhysicalDeviceSurfaceCapabilities(device)
		if err != nil {
			return nil, err
		}

		caps.SurfaceFormats, _, err = app.surface.PhysicalDeviceSurfaceFormats(device)
		if err != nil {
			return nil, err
		}

		caps.SurfacePresentModes, _, err = app.surface.PhysicalDeviceSurfacePresentModes(device)
		if err != nil {
			return nil, err
		}
	}

	return caps, nil
}

func (app *App) pickPhysicalDevice() error {
	physicalDevices, _, err := app.instance.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	bestScore := 0
	var bestDevice core1_0.PhysicalDevice
	var bestCaps *PhysicalDeviceCaps

	for _, device := range physicalDevices {
		caps, err := app.queryPhysicalDeviceCaps(device)
		if err != nil {
			Logger().Warn("could not pull physical device capabilities", "error", err)
			continue
		}

		score := caps.Suitability()
		logDeviceReport(caps, score)

		if score > bestScore {
			bestScore = score
			bestDevice = device
			bestCaps = caps
		}
	}

	if bestDevice == nil {
		return errors.Errorf("failed to find a suitable GPU!")
	}

	Logger().Info("selected physical device", "device", bestCaps.Properties.DriverName)
	app.physicalDevice = bestDevice
	app.physicalDeviceCaps = bestCaps

	return nil
}

// logDeviceReport records the identifying properties of a candidate
// device the way the driver reports them.
func logDeviceReport(caps *PhysicalDeviceCaps, score int) {
	props := caps.Properties

	attrs := []any{
		"device", props.DriverName,
		"type", props.DriverType,
		"vendorID", props.VendorID,
		"deviceID", props.DeviceID,
		"suitability", score,
	}
	if props.PipelineCacheUUID != uuid.Nil {
		attrs = append(attrs, "pipelineCacheUUID", props.PipelineCacheUUID.String())
	}

	Logger().Debug("checking physical device", attrs...)
}

// createLogicalDevice creates the device with one queue per distinct
// required family. Queues are created along with the device; we only
// retrieve their handles afterwards.
func (app *App) createLogicalDevice() error {
	indices := app.physicalDeviceCaps.Indices

	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required when running on a non-conformant implementation such as
	// MoltenVK.
	_, portability := app.physicalDeviceCaps.Extensions[khr_portability_subset.ExtensionName]
	if portability {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	var err error
	app.device, _, err = app.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	app.graphicsQueue = app.device.GetQueue(*indices.GraphicsFamily, 0)
	app.presentQueue = app.device.GetQueue(*indices.PresentFamily, 0)
	return nil
}
