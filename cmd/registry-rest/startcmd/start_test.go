/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	spilog "github.com/hyperledger/aries-framework-go/spi/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

type mockServer struct{}

const registryUnexpectedExitErrMsg = "registry server exited unexpectedly"

func (s *mockServer) ListenAndServe(host string, handler http.Handler, certFile, keyFile string) error {
	return nil
}

func randomURL() string {
	return fmt.Sprintf("localhost:%d", mustGetRandomPort(3))
}

func mustGetRandomPort(n int) int {
	for ; n > 0; n-- {
		port, err := getRandomPort()
		if err != nil {
			continue
		}

		return port
	}
	panic("cannot acquire the random port")
}

func getRandomPort() (int, error) {
	const network = "tcp"

	addr, err := net.ResolveTCPAddr(network, "localhost:0")
	if err != nil {
		return 0, err
	}

	listener, err := net.ListenTCP(network, addr)
	if err != nil {
		return 0, err
	}

	err = listener.Close()
	if err != nil {
		return 0, err
	}

	return listener.Addr().(*net.TCPAddr).Port, nil //nolint:forcetypeassert
}

func listenFor(host string) error {
	timeout := time.After(10 * time.Second)

	for {
		select {
		case <-timeout:
			return fmt.Errorf("timeout: %s is not available", host)
		default:
			conn, err := net.Dial("tcp", host)
			if err != nil {
				continue
			}

			return conn.Close()
		}
	}
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start a registry", startCmd.Short)
	require.Equal(t, "Start a DID and revocation registry controller", startCmd.Long)

	checkFlagPropertiesCorrect(t, startCmd, apiHostFlagName, apiHostFlagShorthand, apiHostFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, webhookFlagName, webhookFlagShorthand, webhookFlagUsage, "[]")
	checkFlagPropertiesCorrect(t, startCmd, blockTimeFlagName, blockTimeFlagShorthand, blockTimeFlagUsage, "")
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName,
	flagShorthand, flagUsage, expectedVal string) {
	t.Helper()

	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, expectedVal, flag.Value.String())
	require.Nil(t, flag.Annotations)
}

func TestStartCmdWithBlankArg(t *testing.T) {
	t.Run("blank host arg", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{"--" + apiHostFlagName, "", "--" + databaseTypeFlagName, databaseTypeMemOption})

		err = startCmd.Execute()
		require.EqualError(t, err, errMissingHost.Error())
	})

	t.Run("missing host arg", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{"--" + databaseTypeFlagName, databaseTypeMemOption})

		err = startCmd.Execute()
		require.EqualError(t, err,
			"Neither api-host (command line flag) nor ARIESD_REGISTRY_API_HOST (environment variable) have been set.")
	})

	t.Run("missing database type", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{"--" + apiHostFlagName, randomURL()})

		err = startCmd.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), databaseTypeEnvKey)
	})
}

func TestStartCmdValidArgs(t *testing.T) {
	t.Run("mem database", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{
			"--" + apiHostFlagName, randomURL(),
			"--" + apiTokenFlagName, "abc",
			"--" + databaseTypeFlagName, databaseTypeMemOption,
			"--" + databaseTimeoutFlagName, "1",
			"--" + blockTimeFlagName, "1",
			"--" + webhookFlagName, "http://localhost:8080",
			"--" + logLevelFlagName, "DEBUG",
			"--" + genesisMembersFlagName, registrytest.Did(1).String(),
			"--" + genesisVoteRequirementFlagName, "1",
		})

		require.NoError(t, startCmd.Execute())
		require.Equal(t, spilog.DEBUG, log.GetLevel(""))

		log.SetLevel("", spilog.INFO)
	})

	t.Run("leveldb database", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{
			"--" + apiHostFlagName, randomURL(),
			"--" + databaseTypeFlagName, databaseTypeLevelDBOption,
			"--" + databasePathFlagName, t.TempDir(),
		})

		require.NoError(t, startCmd.Execute())
	})

	t.Run("env variables", func(t *testing.T) {
		t.Setenv(apiHostEnvKey, randomURL())
		t.Setenv(databaseTypeEnvKey, databaseTypeMemOption)
		t.Setenv(webhookEnvKey, "http://localhost:8080,http://localhost:8081")

		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{})

		require.NoError(t, startCmd.Execute())
	})
}

func TestStartCmdInvalidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{
			name:     "unsupported database",
			args:     []string{"--" + databaseTypeFlagName, "couchdb"},
			contains: "database type not set to a valid type",
		},
		{
			name: "leveldb without path",
			args: []string{
				"--" + databaseTypeFlagName, databaseTypeLevelDBOption,
				"--" + databaseTimeoutFlagName, "1",
			},
			contains: "leveldb needs a database path",
		},
		{
			name:     "invalid database timeout",
			args:     []string{"--" + databaseTypeFlagName, databaseTypeMemOption, "--" + databaseTimeoutFlagName, "x"},
			contains: "failed to parse db timeout",
		},
		{
			name:     "invalid block time",
			args:     []string{"--" + databaseTypeFlagName, databaseTypeMemOption, "--" + blockTimeFlagName, "x"},
			contains: "failed to parse block time",
		},
		{
			name:     "zero block time",
			args:     []string{"--" + databaseTypeFlagName, databaseTypeMemOption, "--" + blockTimeFlagName, "0"},
			contains: "block time must be positive",
		},
		{
			name:     "invalid log level",
			args:     []string{"--" + databaseTypeFlagName, databaseTypeMemOption, "--" + logLevelFlagName, "LOUD"},
			contains: "failed to parse log level",
		},
		{
			name: "invalid genesis member",
			args: []string{
				"--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + genesisMembersFlagName, "0x1234",
			},
			contains: "invalid genesis master member",
		},
		{
			name: "genesis requirement without members",
			args: []string{
				"--" + databaseTypeFlagName, databaseTypeMemOption,
				"--" + genesisVoteRequirementFlagName, "1",
			},
			contains: "without genesis master members",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			startCmd, err := Cmd(&mockServer{})
			require.NoError(t, err)

			startCmd.SetArgs(append([]string{"--" + apiHostFlagName, randomURL()}, tt.args...))

			err = startCmd.Execute()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseGenesisMembership(t *testing.T) {
	alice := registrytest.Did(1).String()
	bob := registrytest.Did(2).String()
	carol := registrytest.Did(3).String()

	t.Run("no members", func(t *testing.T) {
		m, err := parseGenesisMembership(nil, "")
		require.NoError(t, err)
		require.Nil(t, m)
	})

	t.Run("majority by default", func(t *testing.T) {
		m, err := parseGenesisMembership([]string{alice, bob, carol}, "")
		require.NoError(t, err)
		require.Len(t, m.Members, 3)
		require.Equal(t, uint64(2), m.VoteRequirement)
	})

	t.Run("explicit requirement", func(t *testing.T) {
		m, err := parseGenesisMembership([]string{alice, bob}, "1")
		require.NoError(t, err)
		require.Equal(t, uint64(1), m.VoteRequirement)
	})

	t.Run("invalid requirement", func(t *testing.T) {
		_, err := parseGenesisMembership([]string{alice}, "one")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse genesis vote requirement")
	})
}

func TestBlockClock(t *testing.T) {
	provider := mem.NewProvider()

	clock, err := openBlockClock(provider)
	require.NoError(t, err)
	require.Equal(t, types.BlockNumber(0), clock.BlockNumber())

	clock.tick()
	clock.tick()
	require.Equal(t, types.BlockNumber(2), clock.BlockNumber())

	reopened, err := openBlockClock(provider)
	require.NoError(t, err)
	require.Equal(t, types.BlockNumber(2), reopened.BlockNumber())

	t.Run("run advances blocks", func(t *testing.T) {
		stop := reopened.run(10 * time.Millisecond)
		defer stop()

		require.Eventually(t, func() bool {
			return reopened.BlockNumber() > 2
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("corrupt stored block", func(t *testing.T) {
		p := mem.NewProvider()

		store, err := p.OpenStore(clockStoreName)
		require.NoError(t, err)
		require.NoError(t, store.Put(clockKey, []byte("x")))

		_, err = openBlockClock(p)
		require.Error(t, err)
		require.Contains(t, err.Error(), "stored block")
	})
}

func TestStartRegistryRequests(t *testing.T) {
	testHostURL := randomURL()

	go func() {
		parameters := &registryParameters{
			server:    &HTTPServer{},
			host:      testHostURL,
			token:     "secret",
			blockTime: time.Hour,
			dbParam:   &dbParam{dbType: databaseTypeMemOption},
		}
		err := startRegistry(parameters)
		require.FailNow(t, registryUnexpectedExitErrMsg+": "+err.Error())
	}()

	require.NoError(t, listenFor(testHostURL))

	get := func(t *testing.T, authorization string) (*http.Response, []byte) {
		t.Helper()

		req, err := http.NewRequest(http.MethodGet, "http://"+testHostURL+"/registry/block", nil)
		require.NoError(t, err)

		if authorization != "" {
			req.Header.Add("Authorization", authorization)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		defer func() {
			require.NoError(t, resp.Body.Close())
		}()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return resp, body
	}

	t.Run("authorized", func(t *testing.T) {
		resp, body := get(t, "Bearer secret")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var block map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &block))
		require.Contains(t, block, "block")
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := get(t, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong token", func(t *testing.T) {
		resp, _ := get(t, "Bearer nope")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGetUserSetVar(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	t.Run("optional and unset", func(t *testing.T) {
		v, err := getUserSetVar(startCmd, apiTokenFlagName, apiTokenEnvKey, true)
		require.NoError(t, err)
		require.Empty(t, v)
	})

	t.Run("from env", func(t *testing.T) {
		t.Setenv(apiTokenEnvKey, "abc")

		v, err := getUserSetVar(startCmd, apiTokenFlagName, apiTokenEnvKey, false)
		require.NoError(t, err)
		require.Equal(t, "abc", v)
	})

	t.Run("required list unset", func(t *testing.T) {
		_, isSet := os.LookupEnv(webhookEnvKey)
		require.False(t, isSet)

		_, err := getUserSetVars(startCmd, webhookFlagName, webhookEnvKey, false)
		require.Error(t, err)
	})
}
