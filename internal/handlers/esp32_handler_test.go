package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/models"
	"github.com/lacrlabs/lacr-backend/internal/services"
)

func newESP32TestApp(t *testing.T) (*fiber.App, *services.RobotService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Robot{}))

	registry := catalog.NewRegistry()
	registry.Register(&catalog.ModelConfig{Model: "GEM", SettingsSchemaVersion: 1})
	registry.Register(&catalog.ModelConfig{Model: "LAC-R", SettingsSchemaVersion: 1})

	robotService := services.NewRobotService(db, services.NewCredentialStore(), registry)
	handler := NewESP32Handler(robotService)

	app := fiber.New()
	esp32 := app.Group("/api/esp32")
	esp32.Post("/setup", handler.Setup)
	esp32.Post("/authenticate", handler.Authenticate)
	esp32.Post("/heartbeat", handler.Heartbeat)
	esp32.Post("/command", handler.Command)
	esp32.Get("/status/:robot_id", handler.Status)
	return app, robotService
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestESP32Setup(t *testing.T) {
	app, _ := newESP32TestApp(t)

	resp, body := postJSON(t, app, "/api/esp32/setup", fiber.Map{
		"robot_id": "GEM-900", "model": "GEM", "local_ip": "192.168.4.1", "password": "setup123",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["setup_complete"])

	robot, ok := body["robot"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "GEM-900", robot["robot_id"])

	// Same id again conflicts.
	resp, body = postJSON(t, app, "/api/esp32/setup", fiber.Map{
		"robot_id": "GEM-900", "model": "GEM", "local_ip": "192.168.4.1", "password": "setup123",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, true, body["error"])

	resp, _ = postJSON(t, app, "/api/esp32/setup", fiber.Map{
		"robot_id": "GEM-901", "model": "TOASTER", "local_ip": "192.168.4.1", "password": "setup123",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, app, "/api/esp32/setup", fiber.Map{
		"robot_id": "GEM-902", "model": "GEM",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestESP32Authenticate(t *testing.T) {
	app, robotService := newESP32TestApp(t)

	resp, _ := postJSON(t, app, "/api/esp32/authenticate", fiber.Map{
		"robot_id": "missing", "password": "pw",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, err := robotService.DeviceSetup("GEM-910", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)

	// Unclaimed robots cannot authenticate.
	resp, _ = postJSON(t, app, "/api/esp32/authenticate", fiber.Map{
		"robot_id": "GEM-910", "password": "setup123",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, err = robotService.Claim("user-1", "GEM-910", "setup123")
	require.NoError(t, err)

	resp, _ = postJSON(t, app, "/api/esp32/authenticate", fiber.Map{
		"robot_id": "GEM-910", "password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := postJSON(t, app, "/api/esp32/authenticate", fiber.Map{
		"robot_id": "GEM-910", "password": "setup123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	robot, ok := body["robot"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "STA", robot["network_mode"])
}

func TestESP32Heartbeat(t *testing.T) {
	app, robotService := newESP32TestApp(t)

	resp, _ := postJSON(t, app, "/api/esp32/heartbeat", fiber.Map{"robot_id": "missing"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, err := robotService.DeviceSetup("GEM-920", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)

	resp, body := postJSON(t, app, "/api/esp32/heartbeat", fiber.Map{
		"robot_id": "GEM-920", "status": "online", "battery_level": 55,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	robot, err := robotService.Get("GEM-920")
	require.NoError(t, err)
	assert.Equal(t, "online", robot.Status)
	assert.Equal(t, 55, robot.BatteryLevel)
}

func TestESP32CommandAndStatus(t *testing.T) {
	app, robotService := newESP32TestApp(t)

	_, err := robotService.DeviceSetup("GEM-930", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)

	resp, _ := postJSON(t, app, "/api/esp32/command", fiber.Map{"robot_id": "GEM-930"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := postJSON(t, app, "/api/esp32/command", fiber.Map{
		"robot_id": "GEM-930", "command": "reboot",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["command_id"])

	req := httptest.NewRequest(http.MethodGet, "/api/esp32/status/GEM-930", nil)
	statusResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, statusResp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/esp32/status/missing", nil)
	statusResp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, statusResp.StatusCode)
}
