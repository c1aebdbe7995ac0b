package graphics

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
)

func intPtr(i int) *int { return &i }

func TestQueueFamilyIndicesIsComplete(t *testing.T) {
	tests := []struct {
		name    string
		indices QueueFamilyIndices
		want    bool
	}{
		{"empty", QueueFamilyIndices{}, false},
		{"graphics only", QueueFamilyIndices{GraphicsFamily: intPtr(0)}, false},
		{"present only", QueueFamilyIndices{PresentFamily: intPtr(0)}, false},
		{"both", QueueFamilyIndices{GraphicsFamily: intPtr(0), PresentFamily: intPtr(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.indices.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindQueueFamilyIndices(t *testing.T) {
	families := []*core1_0.QueueFamilyProperties{
		{QueueFlags: core1_0.QueueTransfer},
		{QueueFlags: core1_0.QueueGraphics | core1_0.QueueCompute},
		{QueueFlags: core1_0.QueueGraphics},
	}

	t.Run("distinct graphics and present families", func(t *testing.T) {
		indices, err := findQueueFamilyIndices(families, func(index int) (bool, error) {
			return index == 0, nil
		})
		if err != nil {
			t.Fatalf("findQueueFamilyIndices() error: %v", err)
		}
		if !indices.IsComplete() {
			t.Fatal("indices incomplete")
		}
		if *indices.GraphicsFamily != 1 {
			t.Errorf("GraphicsFamily = %d, want 1", *indices.GraphicsFamily)
		}
		if *indices.PresentFamily != 0 {
			t.Errorf("PresentFamily = %d, want 0", *indices.PresentFamily)
		}
	})

	t.Run("first matching family wins", func(t *testing.T) {
		indices, err := findQueueFamilyIndices(families, func(index int) (bool, error) {
			return true, nil
		})
		if err != nil {
			t.Fatalf("findQueueFamilyIndices() error: %v", err)
		}
		if *indices.GraphicsFamily != 1 {
			t.Errorf("GraphicsFamily = %d, want 1", *indices.GraphicsFamily)
		}
		if *indices.PresentFamily != 0 {
			t.Errorf("PresentFamily = %d, want 0", *indices.PresentFamily)
		}
	})

	t.Run("no graphics family", func(t *testing.T) {
		indices, err := findQueueFamilyIndices(families[:1], func(index int) (bool, error) {
			return true, nil
		})
		if err != nil {
			t.Fatalf("findQueueFamilyIndices() error: %v", err)
		}
		if indices.IsComplete() {
			t.Error("indices complete without a graphics family")
		}
		if indices.GraphicsFamily != nil {
			t.Errorf("GraphicsFamily = %d, want nil", *indices.GraphicsFamily)
		}
	})

	t.Run("surface query error propagates", func(t *testing.T) {
		queryErr := errors.New("surface lost")
		_, err := findQueueFamilyIndices(families, func(index int) (bool, error) {
			return false, queryErr
		})
		if !errors.Is(err, queryErr) {
			t.Errorf("findQueueFamilyIndices() error = %v, want %v", err, queryErr)
		}
	})
}

func suitableCaps() *PhysicalDeviceCaps {
	return &PhysicalDeviceCaps{
		Properties: &core1_0.PhysicalDeviceProperties{
			DriverName: "test gpu",
			DriverType: core1_0.PhysicalDeviceTypeDiscreteGPU,
			Limits:     &core1_0.PhysicalDeviceLimits{MaxImageDimension2D: 4096},
		},
		Features: &core1_0.PhysicalDeviceFeatures{GeometryShader: true},
		Indices: QueueFamilyIndices{
			GraphicsFamily: intPtr(0),
			PresentFamily:  intPtr(0),
		},
		Extensions: map[string]*core1_0.ExtensionProperties{
			khr_swapchain.ExtensionName: {ExtensionName: khr_swapchain.ExtensionName},
		},
		SurfaceFormats:      []khr_surface.SurfaceFormat{{Format: core1_0.FormatB8G8R8A8SRGB}},
		SurfacePresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}
}

func TestPhysicalDeviceCapsSuitability(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(caps *PhysicalDeviceCaps)
		want   int
	}{
		{
			name:   "suitable discrete gpu",
			mutate: func(caps *PhysicalDeviceCaps) {},
			want:   5096,
		},
		{
			name: "integrated gpu loses the discrete bonus",
			mutate: func(caps *PhysicalDeviceCaps) {
				caps.Properties.DriverType = core1_0.PhysicalDeviceTypeIntegratedGPU
			},
			want: 4096,
		},
		{
			name: "no geometry shader",
			mutate: func(caps *PhysicalDeviceCaps) {
				caps.Features.GeometryShader = false
			},
			want: 0,
		},
		{
			name: "incomplete queue families",
			mutate: func(caps *PhysicalDeviceCaps) {
				caps.Indices.PresentFamily = nil
			},
			want: 0,
		},
		{
			name: "missing swapchain extension",
			mutate: func(caps *PhysicalDeviceCaps) {
				caps.Extensions = map[string]*core1_0.ExtensionProperties{}
			},
			want: 0,
		},
		{
			name: "no surface formats",
			mutate: func(caps *PhysicalDeviceCaps) {
				caps.SurfaceFormats = nil
			},
			want: 0,
		},
		{
			name: "no present modes",
			mutate: func(caps *PhysicalDeviceCaps) {
				caps.SurfacePresentModes = nil
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := suitableCaps()
			tt.mutate(caps)
			if got := caps.Suitability(); got != tt.want {
				t.Errorf("Suitability() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHasAllExtensions(t *testing.T) {
	available := map[string]*core1_0.ExtensionProperties{
		khr_swapchain.ExtensionName: {ExtensionName: khr_swapchain.ExtensionName},
	}

	if !hasAllExtensions(available, []string{khr_swapchain.ExtensionName}) {
		t.Error("hasAllExtensions() = false for a present extension")
	}
	if hasAllExtensions(available, []string{khr_swapchain.ExtensionName, "VK_KHR_maintenance1"}) {
		t.Error("hasAllExtensions() = true with a missing extension")
	}
	if !hasAllExtensions(available, nil) {
		t.Error("hasAllExtensions() = false for no requirements")
	}
}
