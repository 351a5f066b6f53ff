package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/input"
)

const sampleNet = `<?xml version="1.0" encoding="UTF-8"?>
<net version="1.16">
    <junction id="J1" type="priority" x="0.00" y="0.00"/>
    <junction id="J2" type="priority" x="100.00" y="50.00"/>
    <junction id=":J2_0" type="internal" x="100.00" y="50.00"/>
    <edge id=":J2_0" function="internal">
        <lane id=":J2_0_0" index="0" speed="13.89" length="4.50" shape="99.00,49.00 101.00,51.00"/>
    </edge>
    <edge id="E1" from="J1" to="J2" priority="-1">
        <lane id="E1_0" index="0" speed="13.89" length="111.80" width="3.00" shape="0.00,-1.60 100.00,48.40"/>
        <lane id="E1_1" index="1" speed="13.89" length="111.80" shape="0.00,-4.80 100.00,45.20"/>
    </edge>
</net>`

func TestParseNetwork(t *testing.T) {
	net, err := input.ParseNetwork([]byte(sampleNet))
	assert.NoError(t, err)

	// test: internal junctions are filtered out
	assert.Len(t, net.Junctions, 2)
	assert.Equal(t, "J1", net.Junctions[0].ID)
	assert.Equal(t, 100.0, net.Junctions[1].X)
	assert.Equal(t, 50.0, net.Junctions[1].Y)

	// test: edges keep internal entries but flag them
	assert.Len(t, net.Edges, 2)
	assert.True(t, net.Edges[0].IsInternal())
	assert.False(t, net.Edges[1].IsInternal())

	e1 := net.Edges[1]
	assert.Equal(t, "J1", e1.From)
	assert.Equal(t, "J2", e1.To)
	assert.Len(t, e1.Lanes, 2)

	// test: shape parsing and width default
	assert.Equal(t, 3.0, e1.Lanes[0].Width)
	assert.Equal(t, 3.2, e1.Lanes[1].Width)
	assert.Len(t, e1.Lanes[0].Shape, 2)
	assert.Equal(t, 0.0, e1.Lanes[0].Shape[0].X)
	assert.Equal(t, -1.6, e1.Lanes[0].Shape[0].Y)
	assert.Equal(t, 100.0, e1.Lanes[0].Shape[1].X)
}

func TestParseNetworkBadShape(t *testing.T) {
	bad := `<net><edge id="E1" from="A" to="B"><lane id="E1_0" index="0" shape="0.00,oops"/></edge></net>`
	_, err := input.ParseNetwork([]byte(bad))
	assert.Error(t, err)

	empty := `<net><edge id="E1" from="A" to="B"><lane id="E1_0" index="0" shape=""/></edge></net>`
	_, err = input.ParseNetwork([]byte(empty))
	assert.Error(t, err)
}

func TestParseNetworkBadXML(t *testing.T) {
	_, err := input.ParseNetwork([]byte("<net><junction id="))
	assert.Error(t, err)
}

func TestParseRoutes(t *testing.T) {
	sample := `<routes>
        <vType id="car" accel="2.6" decel="4.5" length="5.0" maxSpeed="55.56" sigma="0.5"/>
        <vType id="bus" accel="1.2" decel="4.0" length="12.0" maxSpeed="25.0"/>
        <vehicle id="0" type="car" depart="0"><route edges="E1"/></vehicle>
    </routes>`
	r, err := input.ParseRoutes([]byte(sample))
	assert.NoError(t, err)
	assert.Equal(t, []string{"car", "bus"}, r.TypeIDs())
	assert.Equal(t, 12.0, r.VehicleTypes[1].Length)
}

func TestLoadSumoConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := `<configuration>
        <input>
            <net-file value="maps/city.net.xml"/>
            <route-files value="city.rou.xml, extra.rou.xml"/>
        </input>
    </configuration>`
	path := filepath.Join(dir, "city.sumocfg")
	assert.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	sc, err := input.LoadSumoConfig(path)
	assert.NoError(t, err)
	// test: relative paths resolve against the config dir
	assert.Equal(t, filepath.Join(dir, "maps", "city.net.xml"), sc.NetFile)
	assert.Equal(t, []string{
		filepath.Join(dir, "city.rou.xml"),
		filepath.Join(dir, "extra.rou.xml"),
	}, sc.RouteFiles)
}

func TestLoadNetworkMissingFile(t *testing.T) {
	_, err := input.LoadNetwork("does-not-exist.net.xml")
	assert.Error(t, err)
}
