package device

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{ID: "1", Name: "Kitchen", Switch: &SwitchCapability{Topic: "kitchen/set", On: "ON", Off: "OFF"}},
		{ID: "2", Name: "Porch", Control: &TopicCapability{Topic: "porch/bri"}},
		{ID: "3", Name: "Desk", Color: &TopicCapability{Topic: "desk/color"}},
	}
}

func TestNewRegistry_Empty(t *testing.T) {
	r := NewRegistry()

	snap := r.Current()
	assert.Equal(t, uint64(0), snap.Generation)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Lights())
}

func TestRebuild_KeySetMatchesValidEntries(t *testing.T) {
	r := NewRegistry()

	entries := append(sampleEntries(),
		Entry{Name: "no id"},
		Entry{ID: "1", Name: "duplicate"},
		Entry{ID: "4"},
	)
	snap := r.Rebuild(entries)

	ids := make([]string, 0, len(snap.Descriptors))
	for id := range snap.Descriptors {
		ids = append(ids, id)
	}
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, ids)
	assert.Len(t, snap.Capabilities, 4)

	assert.Equal(t, "Kitchen", snap.Descriptors["1"].Name, "first occurrence wins")
	assert.Equal(t, "4", snap.Descriptors["4"].Name, "empty name falls back to id")
}

func TestRebuild_Idempotent(t *testing.T) {
	r := NewRegistry()

	first := r.Rebuild(sampleEntries())
	second := r.Rebuild(sampleEntries())

	assert.Equal(t, first.Descriptors, second.Descriptors)
	assert.Equal(t, first.Capabilities, second.Capabilities)
	assert.Equal(t, first.Generation+1, second.Generation)
}

func TestRebuild_ReplacesWholesale(t *testing.T) {
	r := NewRegistry()
	r.Rebuild(sampleEntries())

	r.Rebuild([]Entry{{ID: "9", Name: "Garage"}})

	assert.Equal(t, 1, r.Len())
	_, err := r.Describe("1")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestRebuild_DoesNotAliasInput(t *testing.T) {
	r := NewRegistry()
	entries := sampleEntries()
	r.Rebuild(entries)

	entries[0].Switch.Topic = "mutated"

	caps, err := r.Capabilities("1")
	require.NoError(t, err)
	assert.Equal(t, "kitchen/set", caps.Switch.Topic)
}

func TestDescribe(t *testing.T) {
	r := NewRegistry()
	r.Rebuild(sampleEntries())

	d, err := r.Describe("2")
	require.NoError(t, err)
	assert.Equal(t, NewDescriptor("Porch"), d)

	_, err = r.Describe("nope")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestCapabilities(t *testing.T) {
	r := NewRegistry()
	r.Rebuild(sampleEntries())

	caps, err := r.Capabilities("3")
	require.NoError(t, err)
	assert.Nil(t, caps.Switch)
	assert.Nil(t, caps.Control)
	require.NotNil(t, caps.Color)
	assert.Equal(t, "desk/color", caps.Color.Topic)

	caps.Color.Topic = "changed"
	again, _ := r.Capabilities("3")
	assert.Equal(t, "desk/color", again.Color.Topic)

	_, err = r.Capabilities("nope")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestLights_ReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Rebuild(sampleEntries())

	lights := r.Lights()
	delete(lights, "1")

	assert.Equal(t, 3, r.Len())
}

func TestDescriptor_JSONShape(t *testing.T) {
	data, err := json.Marshal(NewDescriptor("Kitchen"))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"state": {
			"on": false, "bri": 0, "hue": 0, "sat": 0, "xy": [0, 0], "ct": 0,
			"alert": "none", "effect": "none", "colormode": "hs", "reachable": true
		},
		"type": "Extended color light",
		"name": "Kitchen",
		"modelid": "LCT001",
		"swversion": "66009461"
	}`, string(data))
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))

	r := NewRegistry()
	snap, err := r.Reload(path)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	require.NoError(t, os.WriteFile(path, []byte("alexa: [\n"), 0o600))
	_, err = r.Reload(path)
	require.Error(t, err)

	assert.Same(t, snap, r.Current())
	assert.Equal(t, 2, r.Len())
}

func TestReload_MalformedEntryKeepsTheRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(listWithBadEntry), 0o600))

	r := NewRegistry()
	snap, err := r.Reload(path)
	require.NoError(t, err)

	assert.Len(t, snap.Descriptors, 2)
	_, err = r.Describe("1")
	assert.NoError(t, err)
	_, err = r.Describe("3")
	assert.NoError(t, err)
	_, err = r.Describe("2")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestReload_RespectsMaxFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))

	r := NewRegistry()
	r.SetMaxFileSize(16)

	_, err := r.Reload(path)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestRegistry_ConcurrentReadsDuringRebuild(t *testing.T) {
	r := NewRegistry()

	small := []Entry{{ID: "a", Name: "A"}}
	large := make([]Entry, 50)
	for i := range large {
		large[i] = Entry{ID: fmt.Sprintf("d%d", i), Name: "Light"}
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := r.Current()
				// Both maps of a generation always agree.
				if len(snap.Descriptors) != len(snap.Capabilities) {
					t.Errorf("generation %d: %d descriptors, %d capabilities",
						snap.Generation, len(snap.Descriptors), len(snap.Capabilities))
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			r.Rebuild(small)
		} else {
			r.Rebuild(large)
		}
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, uint64(200), r.Current().Generation)
}
