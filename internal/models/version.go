package models

// VersionStatus is a point-in-time view of the three versions that matter.
// Empty fields mean the version could not be determined.
type VersionStatus struct {
	Active       string `json:"active,omitempty" example:"1.2.0" description:"当前激活版本"`
	LatestLocal  string `json:"latestLocal,omitempty" example:"1.3.0" description:"本地最新版本"`
	LatestRemote string `json:"latestRemote,omitempty" example:"1.3.0" description:"远端最新版本"`
}

type Advice string

const (
	// 远端版本未知
	AdviceUnknown Advice = "unknown"
	// 没有激活的版本
	AdviceNoActive Advice = "no-active"
	// 远端有更新的版本可下载
	AdviceRemoteNewer Advice = "remote-newer"
	// 本地已下载更新的版本，尚未激活
	AdviceLocalNewer Advice = "local-newer"
	AdviceUpToDate   Advice = "up-to-date"
)

// LaunchInfo describes how the application is started on this host.
type LaunchInfo struct {
	RunningFrom   string `json:"runningFrom,omitempty"`   //运行实例的可执行文件
	LauncherExec  string `json:"launcherExec,omitempty"`  //桌面启动器 Exec= 命令
	PointerPath   string `json:"pointerPath"`             //激活指针路径
	PointerExists bool   `json:"pointerExists"`
	PointerIsLink bool   `json:"pointerIsLink"`           //指针是否为符号链接
	PointerTarget string `json:"pointerTarget,omitempty"` //符号链接指向
	BinDirInPath  bool   `json:"binDirInPath"`            //指针所在目录是否在 PATH 中
}

// VersionRow is one line of the version listing.
type VersionRow struct {
	Version string `json:"version"`
	Remote  bool   `json:"remote"`
	Local   bool   `json:"local"`
	Active  bool   `json:"active"`
}

type StatusResponse struct {
	Versions VersionStatus `json:"versions"`
	Advice   Advice        `json:"advice"`
	Launch   LaunchInfo    `json:"launch"`
}

type ActivateResponse struct {
	Status  string `json:"status" example:"success"`
	Version string `json:"version" example:"1.3.0"`
}
