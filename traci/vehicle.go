package traci

// VehicleDomain 车辆变量查询接口
type VehicleDomain struct {
	c *Client
}

// IDList 当前在网车辆ID列表
func (d *VehicleDomain) IDList() ([]string, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varIDList, "")
	if err != nil {
		return nil, err
	}
	return readTypedStringList(r)
}

// Position 车辆位置（世界坐标）
func (d *VehicleDomain) Position(id string) (x, y float64, err error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varPosition, id)
	if err != nil {
		return 0, 0, err
	}
	return readTypedPosition2D(r)
}

// Speed 车辆速度（m/s）
func (d *VehicleDomain) Speed(id string) (float64, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varSpeed, id)
	if err != nil {
		return 0, err
	}
	return readTypedDouble(r)
}

// Angle 车辆朝向角（度，北为0顺时针）
func (d *VehicleDomain) Angle(id string) (float64, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varAngle, id)
	if err != nil {
		return 0, err
	}
	return readTypedDouble(r)
}

// RoadID 车辆所在道路ID
func (d *VehicleDomain) RoadID(id string) (string, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varRoadID, id)
	if err != nil {
		return "", err
	}
	return readTypedString(r)
}

// LaneID 车辆所在车道ID
func (d *VehicleDomain) LaneID(id string) (string, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varLaneID, id)
	if err != nil {
		return "", err
	}
	return readTypedString(r)
}

// LanePosition 车辆沿车道里程（米）
func (d *VehicleDomain) LanePosition(id string) (float64, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varLanePosition, id)
	if err != nil {
		return 0, err
	}
	return readTypedDouble(r)
}

// TypeID 车辆类型ID
func (d *VehicleDomain) TypeID(id string) (string, error) {
	r, err := d.c.getVariable(cmdGetVehicleVariable, respGetVehicleVariable, varTypeID, id)
	if err != nil {
		return "", err
	}
	return readTypedString(r)
}
