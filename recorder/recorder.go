package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/trafficvis-oss/task"
	"github.com/tsinghua-fib-lab/trafficvis-oss/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 待写缓冲条数，写入跟不上时丢弃新记录而不是阻塞控制循环
const bufferSize = 1024

// 单次批量写入的超时
const writeTimeout = 10 * time.Second

// tickDoc 一条仿真步记录
type tickDoc struct {
	RunID     string               `bson:"run_id"`
	Step      int64                `bson:"step"`
	T         float64              `bson:"t"`
	Current   int                  `bson:"current"`
	Spawned   int64                `bson:"spawned"`
	Arrived   int64                `bson:"arrived"`
	Signals   int                  `bson:"signals"`
	Vehicles  []task.VehicleRecord `bson:"vehicles,omitempty"`
	CreatedAt time.Time            `bson:"created_at"`
}

// Recorder 仿真步记录器
// 功能：把每个仿真步的统计与可选车辆快照按批写入MongoDB
// 说明：RecordTick只做入队，落库由独立协程按批量大小或时间间隔触发；
// 一次运行的所有记录带同一run_id便于后续查询
type Recorder struct {
	client    *mongo.Client
	col       *mongo.Collection
	runID     string
	positions bool

	batchSize     int
	flushInterval time.Duration

	docs chan tickDoc
	done chan struct{}
}

// New 创建记录器并建立MongoDB连接
// 参数：ctx-建立连接用的上下文，c-MongoDB配置
func New(ctx context.Context, c config.Mongo) (*Recorder, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	r := &Recorder{
		client:        client,
		col:           client.Database(c.DB).Collection(c.Col),
		runID:         uuid.NewString(),
		positions:     c.RecordPositions,
		batchSize:     c.BatchSize,
		flushInterval: time.Duration(c.FlushIntervalMS) * time.Millisecond,
		docs:          make(chan tickDoc, bufferSize),
		done:          make(chan struct{}),
	}
	go r.run()
	log.Infof("recording ticks to %s.%s, run %s", c.DB, c.Col, r.runID)
	return r, nil
}

// RunID 本次运行的标识
func (r *Recorder) RunID() string {
	return r.runID
}

// RecordTick 实现task.TickSink
// 说明：缓冲已满时丢弃本条记录并告警，绝不阻塞调用方
func (r *Recorder) RecordTick(rec task.TickRecord) {
	doc := tickDoc{
		RunID:     r.runID,
		Step:      rec.Step,
		T:         rec.T,
		Current:   rec.Current,
		Spawned:   rec.Spawned,
		Arrived:   rec.Arrived,
		Signals:   rec.Signals,
		CreatedAt: time.Now(),
	}
	if r.positions {
		doc.Vehicles = rec.Vehicles
	}
	select {
	case r.docs <- doc:
	default:
		log.Warnf("record buffer full, dropping step %d", rec.Step)
	}
}

// run 批量写入协程
// 算法说明：攒够batch_size条或到达flush_interval即写一批；
// 通道关闭时写完剩余记录再退出
func (r *Recorder) run() {
	batch := make([]any, 0, r.batchSize)
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if _, err := r.col.InsertMany(ctx, batch); err != nil {
			log.Errorf("insert %d tick docs: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case doc, ok := <-r.docs:
			if !ok {
				flush()
				close(r.done)
				return
			}
			batch = append(batch, doc)
			if len(batch) >= r.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close 写完剩余记录并断开连接
func (r *Recorder) Close(ctx context.Context) error {
	close(r.docs)
	<-r.done
	return r.client.Disconnect(ctx)
}
