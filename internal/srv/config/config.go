package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const paramFilename = "param.yaml"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
}

func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Printf("Creation of config folder: %s", configDir)
			err = os.MkdirAll(configDir, 0770)
			if err != nil {
				logrus.Fatalf("Unable to create config folder: %v\n", err)
			}
		} else {
			logrus.Fatalf("Unable to access config folder: %s", configDir)
		}
	}

	// Open param file
	if _, err := os.Stat(serverConfig.GetCompleteParamFilename()); os.IsNotExist(err) {
		// Create default param file
		logrus.Infof("Create default param file")
		serverConfig.ServerParam, err = ParseServerParam(ParamDefaultFile)
		if err != nil {
			logrus.Fatalf("Unable to interpret default param file: %v\n", err)
		}
		serverConfig.SaveParam()
	} else {
		serverConfig.ServerParam, err = LoadServerParam(serverConfig.GetCompleteParamFilename())
		if err != nil {
			logrus.Fatalf("Unable to interpret param file: %v\n", err)
		}
	}

	if err := serverConfig.ServerParam.Validate(); err != nil {
		logrus.Fatalf("Invalid param file %s: %v\n", serverConfig.GetCompleteParamFilename(), err)
	}

	return serverConfig
}

// LoadServerParam reads a param file.
func LoadServerParam(filename string) (*ServerParam, error) {
	rawConfig, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseServerParam(rawConfig)
}

// ParseServerParam decodes a param file on top of the embedded defaults, so
// missing keys keep their default value. A displays list replaces the default
// panels as a whole.
func ParseServerParam(rawConfig []byte) (*ServerParam, error) {
	serverParam := &ServerParam{}
	if err := yaml.Unmarshal(ParamDefaultFile, serverParam); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(rawConfig, serverParam); err != nil {
		return nil, err
	}
	return serverParam, nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) SaveParam() {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize param file: %v\n", err)
	}
	err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save param file: %v\n", err)
	}
}
