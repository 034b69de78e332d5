package preview

import "github.com/compvault/compvault/internal/types"

// deviceCatalog is the fixed set of simulated viewports offered by the
// device picker. The Responsive entry is synthesized separately: its
// dimensions track the measured preview container, not a device.
var deviceCatalog = []types.DeviceProfile{
	{Name: "iPhone SE", Width: 375, Height: 667},
	{Name: "iPhone 14 Pro", Width: 393, Height: 852},
	{Name: "Pixel 7", Width: 412, Height: 915},
	{Name: "iPad Mini", Width: 768, Height: 1024},
	{Name: "iPad Pro", Width: 1024, Height: 1366},
	{Name: "Laptop", Width: 1280, Height: 800},
	{Name: "Desktop", Width: 1440, Height: 900},
}

// Devices returns the device catalog plus the synthesized Responsive
// entry bound to the given container size. Zero container dimensions
// yield a Responsive entry with zero width, which the document generator
// treats as "defer to the real viewport".
func Devices(containerWidth, containerHeight int) []types.DeviceProfile {
	out := make([]types.DeviceProfile, 0, len(deviceCatalog)+1)
	out = append(out, types.DeviceProfile{
		Name:   "Responsive",
		Width:  containerWidth,
		Height: containerHeight,
	})
	out = append(out, deviceCatalog...)
	return out
}

// DeviceByName looks a profile up in the fixed catalog. The Responsive
// entry is not in the catalog; callers construct it from Devices.
func DeviceByName(name string) (types.DeviceProfile, bool) {
	for _, d := range deviceCatalog {
		if d.Name == name {
			return d, true
		}
	}
	return types.DeviceProfile{}, false
}
