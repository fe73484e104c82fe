/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-did-registry/pkg/controller"
	"github.com/hyperledger/aries-did-registry/pkg/registry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

const (
	// api host flag.
	apiHostFlagName      = "api-host"
	apiHostEnvKey        = "ARIESD_REGISTRY_API_HOST"
	apiHostFlagShorthand = "a"
	apiHostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + apiHostEnvKey

	// api token flag.
	apiTokenFlagName      = "api-token"
	apiTokenEnvKey        = "ARIESD_REGISTRY_API_TOKEN" // nolint:gosec
	apiTokenFlagShorthand = "t"
	apiTokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + apiTokenEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "ARIESD_REGISTRY_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database to keep the registry state in. " +
		"Supported options: mem, leveldb. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databasePathFlagName      = "database-path"
	databasePathEnvKey        = "ARIESD_REGISTRY_DATABASE_PATH"
	databasePathFlagShorthand = "p"
	databasePathFlagUsage     = "The directory of the leveldb database. Not needed if using memstore." +
		" Alternatively, this can be set with the following environment variable: " + databasePathEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "ARIESD_REGISTRY_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	// block time flag.
	blockTimeFlagName      = "block-time"
	blockTimeEnvKey        = "ARIESD_REGISTRY_BLOCK_TIME"
	blockTimeFlagShorthand = "b"
	blockTimeFlagUsage     = "Time in seconds between two blocks." +
		" Default: " + blockTimeDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + blockTimeEnvKey
	blockTimeDefault = "6"

	// webhook url flag.
	webhookFlagName      = "webhook-url"
	webhookEnvKey        = "ARIESD_REGISTRY_WEBHOOK_URL"
	webhookFlagShorthand = "w"
	webhookFlagUsage     = "URL to send event notifications to." +
		" This flag can be repeated, allowing for multiple listeners." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " + webhookEnvKey

	// log level.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "ARIESD_REGISTRY_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "ARIESD_REGISTRY_TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "ARIESD_REGISTRY_TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	// genesis master members flag.
	genesisMembersFlagName      = "genesis-master-members"
	genesisMembersEnvKey        = "ARIESD_REGISTRY_GENESIS_MASTER_MEMBERS"
	genesisMembersFlagShorthand = "m"
	genesisMembersFlagUsage     = "Hex DID of a master member seeded when the registry is created." +
		" This flag can be repeated. The seed is ignored once a membership is stored." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		genesisMembersEnvKey

	// genesis vote requirement flag.
	genesisVoteRequirementFlagName  = "genesis-vote-requirement"
	genesisVoteRequirementEnvKey    = "ARIESD_REGISTRY_GENESIS_VOTE_REQUIREMENT"
	genesisVoteRequirementFlagUsage = "Votes needed to pass a master proposal under the genesis membership." +
		" Defaults to a majority of the genesis members." +
		" Alternatively, this can be set with the following environment variable: " + genesisVoteRequirementEnvKey

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"

	clockStoreName = "BlockClock"
	clockKey       = "block"
)

var (
	errMissingHost = errors.New("host not provided")
	logger         = log.New("aries-registry/registry-rest")
)

type registryParameters struct {
	server                  server
	host, token             string
	tlsCertFile, tlsKeyFile string
	webhookURLs             []string
	blockTime               time.Duration
	genesis                 *types.Membership
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	path    string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(path string) (storage.Provider, error){
	databaseTypeMemOption: func(_ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) {
		if path == "" {
			return nil, errors.New("leveldb needs a database path")
		}

		return leveldb.NewProvider(path), nil
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router) // nolint:gosec
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command { //nolint: funlen
	return &cobra.Command{
		Use:   "start",
		Short: "Start a registry",
		Long:  `Start a DID and revocation registry controller`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			err = setLogLevel(logLevel)
			if err != nil {
				return err
			}

			host, err := getUserSetVar(cmd, apiHostFlagName, apiHostEnvKey, false)
			if err != nil {
				return err
			}

			token, err := getUserSetVar(cmd, apiTokenFlagName, apiTokenEnvKey, true)
			if err != nil {
				return err
			}

			dbParam, err := getDBParam(cmd)
			if err != nil {
				return err
			}

			blockTime, err := getBlockTime(cmd)
			if err != nil {
				return err
			}

			webhookURLs, err := getUserSetVars(cmd, webhookFlagName, webhookEnvKey, true)
			if err != nil {
				return err
			}

			genesis, err := getGenesisMembership(cmd)
			if err != nil {
				return err
			}

			tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
			if err != nil {
				return err
			}

			tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
			if err != nil {
				return err
			}

			parameters := &registryParameters{
				server:      server,
				host:        host,
				token:       token,
				tlsCertFile: tlsCertFile,
				tlsKeyFile:  tlsKeyFile,
				webhookURLs: webhookURLs,
				blockTime:   blockTime,
				genesis:     genesis,
				dbParam:     dbParam,
			}

			return startRegistry(parameters)
		},
	}
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.path, err = getUserSetVar(cmd, databasePathFlagName, databasePathEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func getBlockTime(cmd *cobra.Command) (time.Duration, error) {
	v, err := getUserSetVar(cmd, blockTimeFlagName, blockTimeEnvKey, true)
	if err != nil {
		return 0, err
	}

	if v == "" {
		v = blockTimeDefault
	}

	seconds, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block time %s: %w", v, err)
	}

	if seconds <= 0 {
		return 0, fmt.Errorf("block time must be positive, got %d", seconds)
	}

	return time.Duration(seconds) * time.Second, nil
}

func getGenesisMembership(cmd *cobra.Command) (*types.Membership, error) {
	members, err := getUserSetVars(cmd, genesisMembersFlagName, genesisMembersEnvKey, true)
	if err != nil {
		return nil, err
	}

	requirement, err := getUserSetVar(cmd, genesisVoteRequirementFlagName, genesisVoteRequirementEnvKey, true)
	if err != nil {
		return nil, err
	}

	return parseGenesisMembership(members, requirement)
}

func parseGenesisMembership(members []string, requirement string) (*types.Membership, error) {
	if len(members) == 0 {
		if requirement != "" {
			return nil, errors.New("genesis vote requirement set without genesis master members")
		}

		return nil, nil
	}

	membership := &types.Membership{VoteRequirement: uint64(len(members)/2 + 1)}

	for _, m := range members {
		did, err := types.ParseDid(strings.TrimSpace(m))
		if err != nil {
			return nil, fmt.Errorf("invalid genesis master member %s : %w", m, err)
		}

		membership.Members = append(membership.Members, did)
	}

	if requirement != "" {
		v, err := strconv.ParseUint(requirement, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse genesis vote requirement %s: %w", requirement, err)
		}

		membership.VoteRequirement = v
	}

	return membership, nil
}

func createFlags(startCmd *cobra.Command) {
	// api host flag
	startCmd.Flags().StringP(apiHostFlagName, apiHostFlagShorthand, "", apiHostFlagUsage)

	// api token flag
	startCmd.Flags().StringP(apiTokenFlagName, apiTokenFlagShorthand, "", apiTokenFlagUsage)

	// db type
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)

	// db path
	startCmd.Flags().StringP(databasePathFlagName, databasePathFlagShorthand, "", databasePathFlagUsage)

	// db timeout
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)

	// block time
	startCmd.Flags().StringP(blockTimeFlagName, blockTimeFlagShorthand, "", blockTimeFlagUsage)

	// webhook url flag
	startCmd.Flags().StringSliceP(webhookFlagName, webhookFlagShorthand, []string{}, webhookFlagUsage)

	// log level
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)

	// tls cert file
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)

	// tls key file
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)

	// genesis membership
	startCmd.Flags().StringSliceP(genesisMembersFlagName, genesisMembersFlagShorthand, []string{},
		genesisMembersFlagUsage)
	startCmd.Flags().StringP(genesisVoteRequirementFlagName, "", "", genesisVoteRequirementFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startRegistry(parameters *registryParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	storePro, err := createStoreProvider(parameters)
	if err != nil {
		return err
	}

	clock, err := openBlockClock(storePro)
	if err != nil {
		return fmt.Errorf("failed to start registry rest on port [%s], failed to open block clock : %w",
			parameters.host, err)
	}

	registryOpts := []registry.Opt{registry.WithClock(clock.ManualClock)}
	if parameters.genesis != nil {
		registryOpts = append(registryOpts, registry.WithGenesisMembership(*parameters.genesis))
	}

	ctrl, err := controller.New(storePro, controller.WithWebhookURLs(parameters.webhookURLs...),
		controller.WithRegistryOptions(registryOpts...))
	if err != nil {
		return fmt.Errorf("failed to start registry rest on port [%s], failed to create controller : %w",
			parameters.host, err)
	}

	stop := clock.run(parameters.blockTime)
	defer stop()

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range ctrl.GetRESTHandlers() {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	logger.Infof("Starting registry rest on host [%s] at block %d", parameters.host, clock.BlockNumber())
	// start server on given port and serve using given handlers
	handler := cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start registry rest on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

func createStoreProvider(parameters *registryParameters) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[parameters.dbParam.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(parameters.dbParam.path)
			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), parameters.dbParam.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to connect to storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage at %s : %w", parameters.dbParam.path, err)
	}

	return store, nil
}

// blockClock is a manual clock whose block number survives restarts.
type blockClock struct {
	*runtime.ManualClock
	store storage.Store
}

func openBlockClock(provider storage.Provider) (*blockClock, error) {
	store, err := provider.OpenStore(clockStoreName)
	if err != nil {
		return nil, err
	}

	var block types.BlockNumber

	v, err := store.Get(clockKey)

	switch {
	case errors.Is(err, storage.ErrDataNotFound):
	case err != nil:
		return nil, err
	default:
		n, parseErr := strconv.ParseUint(string(v), 10, 32)
		if parseErr != nil {
			return nil, fmt.Errorf("stored block %q : %w", v, parseErr)
		}

		block = types.BlockNumber(n)
	}

	return &blockClock{ManualClock: runtime.NewManualClock(block), store: store}, nil
}

func (c *blockClock) tick() {
	block := c.Advance(1)

	if err := c.store.Put(clockKey, []byte(strconv.FormatUint(uint64(block), 10))); err != nil {
		logger.Warnf("failed to persist block %d : %s", block, err)
	}

	logger.Debugf("block %d", block)
}

// run advances the clock every blockTime until the returned function is called.
func (c *blockClock) run(blockTime time.Duration) func() {
	ticker := time.NewTicker(blockTime)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.tick()
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
