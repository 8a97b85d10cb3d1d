package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ WorkerManager   = (*OpenWorkerManager)(nil)
	_ Loader          = (*OpenWorkerManager)(nil)
	_ ShareManager    = (*LoggingShareManager)(nil)
	_ ShareLimiter    = NopShareLimiter{}
	_ Timestamper     = WallClockTimestamper{}
	_ Timestamper     = (*PredictableTimestamper)(nil)
	_ IdsProvider     = (*SequenceIdsProvider)(nil)
	_ Reporter        = NopReporter{}
	_ Reporter        = (*LoggingReporter)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader = SettingsConfigLoader{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
