package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"strom_dashboard/internal/model"
)

func TestFormatPower(t *testing.T) {
	assert.Equal(t, "845 W", FormatPower(845))
	assert.Equal(t, "845.5 W", FormatPower(845.5))
	assert.Equal(t, "0 W", FormatPower(0))
}

func TestFormatEnergy(t *testing.T) {
	assert.Equal(t, "10234.50 kWh", FormatEnergy(10234.5))
	assert.Equal(t, "0.00 kWh", FormatEnergy(0))
}

func TestFormatConsumption(t *testing.T) {
	two := model.DaySeries{{}, {}}
	assert.Equal(t, TextNoData, FormatConsumption(nil, 0))
	assert.Equal(t, "0 kWh", FormatConsumption(model.DaySeries{{}}, 0))
	assert.Equal(t, "2.35 kWh", FormatConsumption(two, 2.35))
	assert.Equal(t, "-2 kWh", FormatConsumption(two, -2))
}

func TestFormatLastUpdate(t *testing.T) {
	ts := time.Date(2025, 4, 9, 10, 5, 7, 0, time.UTC)
	cest := time.FixedZone("CEST", 2*60*60)

	assert.Equal(t, "09.04.25 12:05:07", FormatLastUpdate(model.LiveMeta{Timestamp: &ts}, nil, cest))
	assert.Equal(t, TextUnknown, FormatLastUpdate(model.LiveMeta{}, nil, cest))
	assert.Equal(t, TextErrorLoading, FormatLastUpdate(model.LiveMeta{Timestamp: &ts}, errors.New("down"), cest))
}

func TestFormatSerial(t *testing.T) {
	sn := "1EMH0012121209"
	empty := ""

	assert.Equal(t, sn, FormatSerial(model.LiveMeta{Seriennummer: &sn}, nil))
	assert.Equal(t, TextUnknown, FormatSerial(model.LiveMeta{}, nil))
	assert.Equal(t, TextUnknown, FormatSerial(model.LiveMeta{Seriennummer: &empty}, nil))
	assert.Empty(t, FormatSerial(model.LiveMeta{Seriennummer: &sn}, errors.New("down")))
}

func TestFormatTrendLabel(t *testing.T) {
	ts := time.Date(2025, 4, 9, 7, 5, 9, 0, time.UTC)
	assert.Equal(t, "09:05:09", FormatTrendLabel(ts, time.FixedZone("CEST", 2*60*60)))
	assert.Empty(t, FormatTrendLabel(time.Time{}, time.UTC))
}
