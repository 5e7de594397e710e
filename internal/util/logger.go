package util

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const LOG_BUFFER_SIZE = 1000

var (
	ErrLogNotInitialized = errors.New("log object is not initialized yet")
	globalLogLevel       = 3
)

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// ServiceLogger writes leveled log lines through a buffered channel so HTTP
// handlers never block on the file sink. The sink is a size-rotated file.
type ServiceLogger struct {
	logBuffer         chan leveledEntry
	sink              *lumberjack.Logger
	wg                *sync.WaitGroup
	loggerInitialized bool
	zapLogger         *zap.Logger
}

type leveledEntry struct {
	level  int
	logMsg string
}

func (s *ServiceLogger) Init(logFilePath string) error {

	s.wg = new(sync.WaitGroup)
	s.logBuffer = make(chan leveledEntry, LOG_BUFFER_SIZE)

	s.sink = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		LocalTime:  true,
		Compress:   true,
	}

	s.zapLoggerInit()

	s.wg.Add(1)
	go s.logWriter()

	s.loggerInitialized = true
	return nil
}

func (s *ServiceLogger) zapLoggerInit() {

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder

	fileEncoder := zapcore.NewConsoleEncoder(config)
	writer := zapcore.AddSync(s.sink)

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, writer, GlobalLogLevelSetter()),
	)
	s.zapLogger = zap.New(core)
	defer s.zapLogger.Sync()
}

func GlobalLogLevelSetter() zapcore.Level {
	var zaplevel zapcore.Level
	if globalLogLevel == LOG_LEVEL_ERROR {
		zaplevel = zapcore.ErrorLevel
	} else if globalLogLevel == LOG_LEVEL_WARN {
		zaplevel = zapcore.WarnLevel
	} else if globalLogLevel == LOG_LEVEL_INFO {
		zaplevel = zapcore.InfoLevel
	} else if globalLogLevel == LOG_LEVEL_DEBUG {
		zaplevel = zapcore.DebugLevel
	}
	return zaplevel
}

func (s *ServiceLogger) logWriter() {
	for logdata := range s.logBuffer {
		if logdata.level == LOG_LEVEL_ERROR {
			s.zapLogger.Error(logdata.logMsg)
		} else if logdata.level == LOG_LEVEL_WARN {
			s.zapLogger.Warn(logdata.logMsg)
		} else if logdata.level == LOG_LEVEL_INFO {
			s.zapLogger.Info(logdata.logMsg)
		} else if logdata.level == LOG_LEVEL_DEBUG {
			s.zapLogger.Debug(logdata.logMsg)
		}
	}
	s.wg.Done()
}

// LogEvent accepts either (msg) or (level, msg parts...). A call on an
// uninitialized logger is a no-op returning ErrLogNotInitialized, so tests
// can pass a zero-value logger.
func (s *ServiceLogger) LogEvent(v ...interface{}) error {
	var msg string
	var level int
	var ok bool

	if len(v) == 1 {
		level = LOG_LEVEL_INFO
		msg = fmt.Sprint(v[0])

	} else if len(v) > 1 {
		level, ok = v[0].(int)
		if ok && level >= LOG_LEVEL_ERROR && level <= LOG_LEVEL_DEBUG {
			msg = fmt.Sprintf("%v", v[1:])
		} else {
			level = LOG_LEVEL_INFO
			msg = fmt.Sprintf("%v", v)
		}
		msg = msg[1 : len(msg)-1]
	}

	if !s.loggerInitialized {
		return ErrLogNotInitialized
	}
	s.logBuffer <- leveledEntry{level, msg}
	return nil
}

func (s *ServiceLogger) DeInit() {

	if !s.loggerInitialized {
		return
	}
	s.loggerInitialized = false
	close(s.logBuffer)
	s.wg.Wait()

	s.sink.Close()
}

func SetCommonLoggerAttributes(GlobalLogLevel int) {
	globalLogLevel = GlobalLogLevel
}
