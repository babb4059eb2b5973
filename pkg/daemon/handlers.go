package daemon

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/types"
	"github.com/izyuk/BatteryData/pkg/version"
)

func getSnapshot(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, ctrl.State())
}

func getAccessories(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, ctrl.State().Accessories)
}

// historyResponse carries both windows so clients need one round trip.
type historyResponse struct {
	Samples []types.HistorySample `json:"samples"`
	Eta     []types.EtaSample     `json:"eta"`
}

func getHistory(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, historyResponse{
		Samples: store.Samples(),
		Eta:     store.EtaSamples(),
	})
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func setRefreshInterval(c *gin.Context) {
	var v float64
	if err := c.BindJSON(&v); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if v < config.MinRefreshInterval.Seconds() || v > config.MaxRefreshInterval.Seconds() {
		err := fmt.Errorf("refresh interval must be between %gs and %gs, got %g",
			config.MinRefreshInterval.Seconds(), config.MaxRefreshInterval.Seconds(), v)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetRefreshIntervalSeconds(v)
	if err := saveAndApply(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set refresh interval to %gs", v)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func setEstimationWindow(c *gin.Context) {
	var v int
	if err := c.BindJSON(&v); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if v < 1 || v > 10 {
		err := fmt.Errorf("estimation window must be between 1 and 10 minutes, got %d", v)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetEstimationWindowMinutes(v)
	if err := saveAndApply(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set estimation window to %d minutes", v)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func setChartWindow(c *gin.Context) {
	var v int
	if err := c.BindJSON(&v); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if v < 10 || v > 120 {
		err := fmt.Errorf("chart window must be between 10 and 120 minutes, got %d", v)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetChartWindowMinutes(v)
	if err := saveAndApply(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set chart window to %d minutes", v)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func setShowWatts(c *gin.Context) {
	setBoolPref(c, "show watts", conf.SetShowWatts)
}

func setCompactLabel(c *gin.Context) {
	setBoolPref(c, "compact label", conf.SetCompactLabel)
}

func setStatusBarExpanded(c *gin.Context) {
	setBoolPref(c, "status bar expanded", conf.SetStatusBarExpanded)
}

func setBoolPref(c *gin.Context, name string, set func(bool)) {
	var v bool
	if err := c.BindJSON(&v); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	set(v)
	if err := saveAndApply(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set %s to %t", name, v)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func saveAndApply() error {
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		return err
	}
	ctrl.ConfigChanged()
	return nil
}

// getEvents streams hub events as SSE until the client disconnects.
func getEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
