/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-02-11 21:45:30
 * @LastEditTime: 2026-02-11 21:45:30
 * @LastEditors: 安知鱼
 */
package task

// Job 是本包内所有定时任务的统一形态，与 cron.Job 接口兼容。
type Job interface {
	Run()
	Name() string
}
